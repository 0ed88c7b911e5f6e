package config

import "errors"

// Validation errors returned by Config.Validate. Package-level sentinels
// so callers can branch with errors.Is while the messages stay
// human-readable.
var (
	// ErrNoConfigFiles is returned when no INI configuration file was
	// given. The report is entirely config-driven, so there is nothing
	// to do without one.
	ErrNoConfigFiles = errors.New("no configuration files: provide at least one INI file with --config-file")

	// ErrInvalidProcesses is returned when the process count is not
	// positive.
	ErrInvalidProcesses = errors.New("invalid process count: must be positive")

	// ErrConflictingHTMLModes is returned when both --html-only and
	// --no-html are set.
	ErrConflictingHTMLModes = errors.New("conflicting flags: --html-only and --no-html cannot be used together")

	// ErrInvalidPolicy is returned for an error policy other than
	// raise, warn, or ignore.
	ErrInvalidPolicy = errors.New("invalid error policy: must be raise, warn, or ignore")

	// ErrMissingIFO is returned when a configuration interpolates
	// %(ifo)s but no IFO was configured.
	ErrMissingIFO = errors.New("configuration interpolates %(ifo)s but no --ifo was given")
)
