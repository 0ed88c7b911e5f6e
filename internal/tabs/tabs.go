// Package tabs builds report tabs from configuration sections and
// processes them into rendered figures.
//
// Tab types are selected by the "type" option of a tab section through a
// registry, so new tab kinds plug in without the parser knowing about
// them. Every tab can report what channels, flags, and trigger
// generators it needs, which feeds the bulk prefetch before per-tab
// processing starts.
package tabs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/data"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/plot"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

// Plot is one figure definition inside a tab, parsed from a numbered
// section option plus its "N-key" modifiers.
type Plot struct {
	// Index orders plots inside the tab.
	Index int

	// Sources names the channels or flags drawn in this figure.
	Sources []string

	// Href is the rendered image path relative to the output
	// directory, filled during processing.
	Href string

	// Params carries display options from the modifier lines.
	Params plot.Params
}

// Requirement lists everything a tab needs fetched before processing.
type Requirement struct {
	Channels []string
	Flags    []string
	ETGs     []string
}

// merge folds another requirement in, deduplicating.
func (r *Requirement) merge(o Requirement) {
	r.Channels = appendUnique(r.Channels, o.Channels...)
	r.Flags = appendUnique(r.Flags, o.Flags...)
	r.ETGs = appendUnique(r.ETGs, o.ETGs...)
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

// ReportWriter renders one processed tab into the output tree. The
// report package implements it.
type ReportWriter interface {
	WriteTabPage(tab Tab) error
}

// Tab is one report section. Implementations are built through the
// registry from "tab-*" configuration sections.
type Tab interface {
	// Name is the display name.
	Name() string

	// ParentName names the parent tab, empty for top-level tabs.
	ParentName() string

	// Path is the URL-safe directory segment for this tab.
	Path() string

	// States lists the states the tab is processed under. Never empty;
	// the all-time state is the default.
	States() []model.State

	// Layout gives the figure-grid row widths. Every value divides 12.
	Layout() []int

	// Plots lists the tab's figure definitions in order.
	Plots() []*Plot

	// Requires reports the data the tab needs fetched.
	Requires() Requirement

	// AssignHrefs fills each plot's figure path without rendering
	// anything. Figure paths are a pure function of the run span, so
	// report writing can reference figures from a prior run even when
	// processing is skipped.
	AssignHrefs(deps *Deps)

	// Process fetches the tab's data and renders its figures.
	Process(ctx context.Context, deps *Deps) error

	// WriteReport hands the processed tab to a report writer.
	WriteReport(rw ReportWriter) error
}

// Deps bundles the shared stores and options tab processing draws on.
// One Deps serves the whole run; the rendered set stops two tabs from
// re-rendering the same figure.
type Deps struct {
	Config       *config.Config
	Span         gpstime.Span
	Segments     *segments.Store
	Data         *data.Store
	Triggers     *triggers.Store
	SegmentOpts  segments.Options
	DataOpts     data.Options
	TriggerCache *cache.Cache
	OutDir       string
	Logger       *slog.Logger

	mu       sync.Mutex
	rendered map[string]bool
}

// MarkRendered records a figure path and reports whether it still needs
// rendering. The second call for the same path returns false.
func (d *Deps) MarkRendered(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rendered == nil {
		d.rendered = make(map[string]bool)
	}
	if d.rendered[path] {
		return false
	}
	d.rendered[path] = true
	return true
}

// stateSegments resolves the active segments of a state, fetching its
// defining flag on demand. The all-time state yields nil, meaning no
// restriction.
func stateSegments(ctx context.Context, state model.State, deps *Deps) (model.SegmentList, error) {
	if state.IsAll() {
		return nil, nil
	}
	if err := segments.Fetch(ctx, deps.Segments, []string{state.Definition}, deps.Span, deps.SegmentOpts); err != nil {
		return nil, fmt.Errorf("state %q: %w", state.Name, err)
	}
	flag, ok := deps.Segments.Get(state.Definition)
	if !ok {
		return model.SegmentList{}, nil
	}
	return flag.Active, nil
}

// Constructor builds a tab of one registered type from its section.
type Constructor func(section string, ini *config.INI, states []model.State) (Tab, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register installs a tab type under a tag. Registering a duplicate tag
// panics, as that is a programming error.
func Register(tag string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[tag]; dup {
		panic(fmt.Sprintf("tabs: duplicate registration of %q", tag))
	}
	registry[tag] = ctor
}

// FromConfig builds the tab defined by one "tab-*" section, dispatching
// on its "type" option. A missing type means the default data tab.
func FromConfig(section string, ini *config.INI, states []model.State) (Tab, error) {
	tag := DefaultType
	if v, ok := ini.Get(section, "type"); ok && v != "" {
		tag = strings.ToLower(v)
	}
	registryMu.RLock()
	ctor, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("section [%s]: unknown tab type %q", section, tag)
	}
	return ctor(section, ini, states)
}

// FromINI builds every tab the configuration defines, restricted to the
// selected names when any are given.
func FromINI(ini *config.INI, selected []string) ([]Tab, error) {
	states := ini.States()
	var out []Tab
	for _, section := range ini.TabSections() {
		tab, err := FromConfig(section, ini, states)
		if err != nil {
			return nil, err
		}
		if len(selected) > 0 && !nameSelected(tab.Name(), selected) {
			continue
		}
		out = append(out, tab)
	}
	return out, nil
}

func nameSelected(name string, selected []string) bool {
	for _, s := range selected {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Collect merges the requirements of all tabs for bulk prefetch.
func Collect(list []Tab) Requirement {
	var req Requirement
	for _, t := range list {
		req.merge(t.Requires())
		for _, state := range t.States() {
			if !state.IsAll() {
				req.Flags = appendUnique(req.Flags, state.Definition)
			}
		}
	}
	return req
}
