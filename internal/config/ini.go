package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/gwdetchar/gwsummary/internal/model"
)

// Section-name conventions in summary configurations.
const (
	// TabSectionPrefix marks sections defining report tabs.
	TabSectionPrefix = "tab-"

	// GroupSectionPrefix marks channel-group sections that are
	// expanded into one section per listed channel.
	GroupSectionPrefix = "channels-"

	// StatesSection defines the run states (name = defining flag).
	StatesSection = "states"
)

// interpRe matches %(option)s interpolation references.
var interpRe = regexp.MustCompile(`%\(([^)]+)\)s`)

// INI is a parsed summary configuration: one or more INI files merged,
// with %(ifo)s interpolation applied to section names and values, and
// channel groups expanded into per-channel sections.
type INI struct {
	file *ini.File
	ifo  string
}

// LoadINI reads and merges the given INI files in order (later files
// override earlier ones), then applies interpolation and channel-group
// expansion. The ifo, when non-empty, is available to interpolation as
// %(ifo)s alongside any options in the DEFAULT section.
func LoadINI(ifo string, paths ...string) (*INI, error) {
	if len(paths) == 0 {
		return nil, ErrNoConfigFiles
	}

	opts := ini.LoadOptions{
		// Summary configurations use "key = value" with ":" appearing
		// inside channel names, so "=" is the only delimiter.
		KeyValueDelimiters:         "=",
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
		// Channel names used as section names contain ".", which would
		// otherwise declare child sections.
		ChildSectionDelimiter: ">",
	}
	rest := make([]any, len(paths)-1)
	for i, p := range paths[1:] {
		rest[i] = p
	}
	f, err := ini.LoadSources(opts, paths[0], rest...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	c := &INI{file: f, ifo: ifo}
	if err := c.interpolateAll(); err != nil {
		return nil, err
	}
	if err := c.expandChannelGroups(); err != nil {
		return nil, err
	}
	return c, nil
}

// lookup resolves an interpolation reference against the IFO and the
// DEFAULT section.
func (c *INI) lookup(option string) (string, error) {
	if option == "ifo" {
		if c.ifo == "" {
			return "", ErrMissingIFO
		}
		return c.ifo, nil
	}
	def := c.file.Section(ini.DefaultSection)
	if def.HasKey(option) {
		return def.Key(option).String(), nil
	}
	return "", fmt.Errorf("interpolation references missing option %q", option)
}

// interpolate expands every %(option)s reference in s.
func (c *INI) interpolate(s string) (string, error) {
	var firstErr error
	out := interpRe.ReplaceAllStringFunc(s, func(m string) string {
		option := interpRe.FindStringSubmatch(m)[1]
		v, err := c.lookup(option)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return v
	})
	return out, firstErr
}

// interpolateAll rewrites templated section names and values in place.
func (c *INI) interpolateAll() error {
	// Section names first, so value interpolation sees final names.
	for _, name := range c.file.SectionStrings() {
		if !strings.Contains(name, "%(") {
			continue
		}
		newName, err := c.interpolate(name)
		if err != nil {
			return fmt.Errorf("section [%s]: %w", name, err)
		}
		if err := c.renameSection(name, newName); err != nil {
			return err
		}
	}

	for _, sec := range c.file.Sections() {
		for _, key := range sec.Keys() {
			v := key.Value()
			if !strings.Contains(v, "%(") {
				continue
			}
			nv, err := c.interpolate(v)
			if err != nil {
				return fmt.Errorf("option %q in [%s]: %w", key.Name(), sec.Name(), err)
			}
			key.SetValue(nv)
		}
	}
	return nil
}

// renameSection moves all keys of a section to a new name, merging into
// an existing target. Existing target keys win: a concrete section
// overrides its template.
func (c *INI) renameSection(old, target string) error {
	src := c.file.Section(old)
	dst := c.file.Section(target)
	for _, key := range src.Keys() {
		if dst.HasKey(key.Name()) {
			continue
		}
		if _, err := dst.NewKey(key.Name(), key.Value()); err != nil {
			return fmt.Errorf("rename section [%s]: %w", old, err)
		}
	}
	c.file.DeleteSection(old)
	return nil
}

// expandChannelGroups splits each "channels-*" section into one section
// per channel named in its "channels" option, copying the remaining
// options. Options already set in a per-channel section are kept.
func (c *INI) expandChannelGroups() error {
	for _, name := range c.file.SectionStrings() {
		if !strings.HasPrefix(name, GroupSectionPrefix) {
			continue
		}
		group := c.file.Section(name)
		if !group.HasKey("channels") {
			continue
		}
		channels := model.SplitChannels(group.Key("channels").String())
		for _, channel := range channels {
			sec := c.file.Section(channel)
			for _, key := range group.Keys() {
				if key.Name() == "channels" || sec.HasKey(key.Name()) {
					continue
				}
				if _, err := sec.NewKey(key.Name(), key.Value()); err != nil {
					return fmt.Errorf("expand group [%s]: %w", name, err)
				}
			}
		}
		c.file.DeleteSection(name)
	}
	return nil
}

// HasSection reports whether the named section exists. Missing optional
// sections are "feature absent" for callers, never an error.
func (c *INI) HasSection(name string) bool {
	_, err := c.file.GetSection(name)
	return err == nil
}

// Get returns the value of an option, falling back to the DEFAULT
// section when the section does not set it.
func (c *INI) Get(section, option string) (string, bool) {
	if sec, err := c.file.GetSection(section); err == nil && sec.HasKey(option) {
		return sec.Key(option).String(), true
	}
	def := c.file.Section(ini.DefaultSection)
	if def.HasKey(option) {
		return def.Key(option).String(), true
	}
	return "", false
}

// Options returns all options of a section as a map, without DEFAULT
// propagation. Missing sections yield an empty map.
func (c *INI) Options(section string) map[string]string {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return map[string]string{}
	}
	return sec.KeysHash()
}

// OptionNames returns a section's option names in file order.
func (c *INI) OptionNames(section string) []string {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

// TabSections returns the names of all tab sections, sorted.
func (c *INI) TabSections() []string {
	var out []string
	for _, name := range c.file.SectionStrings() {
		if strings.HasPrefix(name, TabSectionPrefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// States returns the configured states in file order, always including
// the implicit all-time state first.
func (c *INI) States() []model.State {
	states := []model.State{{Name: model.AllState}}
	sec, err := c.file.GetSection(StatesSection)
	if err != nil {
		return states
	}
	for _, key := range sec.Keys() {
		if strings.EqualFold(key.Name(), model.AllState) {
			continue
		}
		states = append(states, model.State{Name: key.Name(), Definition: key.Value()})
	}
	return states
}

// IFO returns the interpolation IFO.
func (c *INI) IFO() string {
	return c.ifo
}
