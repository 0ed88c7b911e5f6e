package config

import (
	"fmt"
	"log/slog"
)

// ErrorPolicy decides what a fetch layer does with a failure from an
// external source: propagate it, log it and continue with empty results,
// or continue silently.
type ErrorPolicy string

const (
	PolicyRaise  ErrorPolicy = "raise"
	PolicyWarn   ErrorPolicy = "warn"
	PolicyIgnore ErrorPolicy = "ignore"
)

// Validate rejects unknown policies.
func (p ErrorPolicy) Validate() error {
	switch p {
	case PolicyRaise, PolicyWarn, PolicyIgnore:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidPolicy, string(p))
}

// Apply handles err per the policy. The returned error is non-nil only
// under PolicyRaise; under PolicyWarn the failure is logged with the
// given message and attrs. A nil err is always passed through.
func (p ErrorPolicy) Apply(err error, logger *slog.Logger, msg string, attrs ...any) error {
	if err == nil {
		return nil
	}
	switch p {
	case PolicyWarn:
		logger.Warn(msg, append(attrs, "error", err)...)
		return nil
	case PolicyIgnore:
		return nil
	default:
		return err
	}
}
