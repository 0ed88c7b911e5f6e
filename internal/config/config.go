package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
)

// Default configuration values.
const (
	// DefaultProcesses is the degree of parallelism for bulk data
	// fetches. Fetches are I/O-bound file reads, so a small pool is
	// enough to hide latency without thrashing the page cache.
	DefaultProcesses = 4

	// DefaultOutputDir is where the HTML tree is written when no
	// output directory is given.
	DefaultOutputDir = "."

	// DefaultETG is the event-trigger generator assumed when none is
	// named on the command line.
	DefaultETG = "omicron"

	// AppName is the application name used for XDG directory paths.
	AppName = "gwsummary"
)

// Mode identifies how the run span was requested. Trend-type defaulting
// depends on it: GPS-mode (short) runs read second trends, calendar
// runs read minute trends.
type Mode int

const (
	ModeDay Mode = iota
	ModeWeek
	ModeMonth
	ModeGPS
)

// String returns the mode name as used on the command line.
func (m Mode) String() string {
	switch m {
	case ModeDay:
		return "day"
	case ModeWeek:
		return "week"
	case ModeMonth:
		return "month"
	case ModeGPS:
		return "gps"
	}
	return "unknown"
}

// Config holds one summary run's settings, populated from CLI flags and
// the optional defaults file, then passed explicitly to every component.
//
// The original carried most of these as module-level globals; a single
// value passed by reference makes the data flow visible and keeps tests
// independent.
type Config struct {
	// Mode records which subcommand selected the span.
	Mode Mode

	// Span is the GPS interval the report covers.
	Span gpstime.Span

	// IFO is the interferometer prefix, e.g. "H1". Required for
	// configurations that use %(ifo)s interpolation.
	IFO string

	// Verbose enables Debug-level logging.
	Verbose bool

	// ConfigFiles lists the INI files to read, in order. Later files
	// override earlier ones.
	ConfigFiles []string

	// Tabs restricts processing to the named tabs. Empty means all.
	Tabs []string

	// NDS forces fetching time-series data over NDS instead of from
	// cached frame files. Empty means decide per channel ("guess").
	NDS string

	// Processes is the parallelism for bulk data fetches.
	Processes int

	// BulkRead prefetches all data referenced by any tab before
	// per-tab processing begins.
	BulkRead bool

	// OnSegDBError is the policy for segment-database failures.
	OnSegDBError ErrorPolicy

	// OnDataFindError is the policy for data-discovery failures.
	OnDataFindError ErrorPolicy

	// SegmentURL is the segment-database endpoint queried for flags
	// not served from the segment cache.
	SegmentURL string

	// DataCache, TriggerCache, and SegmentCache are optional cache
	// file paths restricting where each fetcher looks.
	DataCache    string
	TriggerCache string
	SegmentCache string

	// OutputDir is the root of the written HTML tree.
	OutputDir string

	// HTMLOnly skips all data fetching and plotting and rewrites the
	// HTML from whatever is already on disk.
	HTMLOnly bool

	// NoHTML processes data and plots but writes no HTML.
	NoHTML bool

	// ArchiveTags lists archive tags to write for the full span.
	ArchiveTags []string

	// DailyArchiveTags lists archive tags to write per UTC day.
	DailyArchiveTags []string

	// ArchiveDir is where archives are read from and written to.
	ArchiveDir string
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		Processes:       DefaultProcesses,
		OnSegDBError:    PolicyRaise,
		OnDataFindError: PolicyRaise,
		OutputDir:       DefaultOutputDir,
		ArchiveDir:      XDGDataDir(),
	}
}

// GPSMode reports whether trend channels should default to second
// trends.
func (c *Config) GPSMode() bool {
	return c.Mode == ModeGPS
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any work begins.
func (c *Config) Validate() error {
	if len(c.ConfigFiles) == 0 {
		return ErrNoConfigFiles
	}
	if c.Span.End < c.Span.Start {
		return gpstime.ErrInvalidSpan
	}
	if c.Processes <= 0 {
		return ErrInvalidProcesses
	}
	if err := c.OnSegDBError.Validate(); err != nil {
		return err
	}
	if err := c.OnDataFindError.Validate(); err != nil {
		return err
	}
	if c.HTMLOnly && c.NoHTML {
		return ErrConflictingHTMLModes
	}
	return nil
}

// XDGDataDir returns the XDG data directory for gwsummary, the default
// home for archives.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
