package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultsFile is the optional per-user defaults file name.
const DefaultsFile = ".gwsummary.yaml"

// ErrDefaultsNotFound is returned when the defaults file does not exist.
var ErrDefaultsNotFound = errors.New("defaults file not found")

// Defaults holds per-user defaults that CLI flags override: the flags
// win whenever both are set.
type Defaults struct {
	// IFO is the default interferometer prefix.
	IFO string `yaml:"ifo"`

	// OutputDir is the default HTML output directory.
	OutputDir string `yaml:"output-dir"`

	// ArchiveDir is the default archive directory.
	ArchiveDir string `yaml:"archive-dir"`

	// Verbose enables Debug logging by default.
	Verbose bool `yaml:"verbose"`
}

// LoadDefaults reads a defaults file. A missing file returns
// ErrDefaultsNotFound so callers can distinguish "no file" (fine when
// the path was not explicit) from a broken one.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDefaultsNotFound
		}
		return nil, err
	}
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDefaultsFile searches for the defaults file: an explicit path
// wins, then the current directory, then the home directory. Returns ""
// when nothing is found.
func FindDefaultsFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultsFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultsFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Apply fills unset Config fields from the defaults.
func (d *Defaults) Apply(c *Config) {
	if c.IFO == "" {
		c.IFO = d.IFO
	}
	if c.OutputDir == "" || c.OutputDir == DefaultOutputDir {
		if d.OutputDir != "" {
			c.OutputDir = d.OutputDir
		}
	}
	if d.ArchiveDir != "" && c.ArchiveDir == XDGDataDir() {
		c.ArchiveDir = d.ArchiveDir
	}
	if d.Verbose {
		c.Verbose = true
	}
}
