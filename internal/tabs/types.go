package tabs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/data"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/plot"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

// Registered tab type tags.
const (
	DefaultType  = "default"
	TriggerType  = "triggers"
	SegmentsType = "segments"
)

func init() {
	Register(DefaultType, newDataTab)
	Register(TriggerType, newTriggerTab)
	Register(SegmentsType, newSegmentTab)
}

// figurePath names a rendered figure inside the output tree, keyed by
// source, kind, state, and span so reruns and other tabs referencing
// the same figure resolve to the same file.
func figurePath(deps *Deps, source, kind string, state model.State) string {
	tag := sanitizeTag(source)
	if !state.IsAll() {
		tag += "-" + strings.ToUpper(state.Key())
	}
	name := fmt.Sprintf("%s-%s-%d-%d.png",
		tag, strings.ToUpper(kind), int64(deps.Span.Start), int64(deps.Span.Duration()))
	return path.Join("plots", name)
}

// figureFile maps a figure href onto a writable path under the output
// directory, creating parents as needed.
func figureFile(deps *Deps, href string) (string, error) {
	full := filepath.Join(deps.OutDir, filepath.FromSlash(href))
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return "", fmt.Errorf("create figure directory: %w", err)
	}
	return full, nil
}

func sanitizeTag(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return strings.Trim(sb.String(), "_")
}

// dataTab renders time-series line figures for its channels.
type dataTab struct {
	base
}

func newDataTab(section string, ini *config.INI, states []model.State) (Tab, error) {
	b, err := parseBase(section, ini, states)
	if err != nil {
		return nil, err
	}
	return &dataTab{base: b}, nil
}

func (t *dataTab) Requires() Requirement {
	var req Requirement
	for _, p := range t.plots {
		req.Channels = appendUnique(req.Channels, p.Sources...)
	}
	return req
}

func (t *dataTab) AssignHrefs(deps *Deps) {
	for _, state := range t.states {
		for _, p := range t.plots {
			if p.Href == "" {
				p.Href = figurePath(deps, strings.Join(p.Sources, "-"), "timeseries", state)
			}
		}
	}
}

func (t *dataTab) Process(ctx context.Context, deps *Deps) error {
	channels, err := ParseChannels(t.Requires().Channels, deps.Config.GPSMode())
	if err != nil {
		return fmt.Errorf("tab %q: %w", t.name, err)
	}
	if err := data.GetTimeSeriesDict(ctx, deps.Data, channels, deps.Span, deps.DataOpts); err != nil {
		return fmt.Errorf("tab %q: %w", t.name, err)
	}

	for _, state := range t.states {
		active, err := stateSegments(ctx, state, deps)
		if err != nil {
			return fmt.Errorf("tab %q: %w", t.name, err)
		}
		for _, p := range t.plots {
			href := figurePath(deps, strings.Join(p.Sources, "-"), "timeseries", state)
			if p.Href == "" {
				p.Href = href
			}
			if !deps.MarkRendered(href) {
				continue
			}
			var series []*model.TimeSeries
			for _, source := range p.Sources {
				got := deps.Data.Get(source, deps.Span)
				series = append(series, cropToSegments(got, active)...)
			}
			if len(series) == 0 {
				deps.Logger.Warn("no data for figure", "tab", t.name, "figure", href)
				continue
			}
			file, err := figureFile(deps, href)
			if err != nil {
				return fmt.Errorf("tab %q: %w", t.name, err)
			}
			err = plot.SaveSeriesPlot(file, series, deps.Span, plot.SeriesOptions{
				Params: p.Params,
			})
			if err != nil {
				return fmt.Errorf("tab %q: %w", t.name, err)
			}
			deps.Logger.Debug("rendered figure", "tab", t.name, "figure", href)
		}
	}
	return nil
}

func (t *dataTab) WriteReport(rw ReportWriter) error { return rw.WriteTabPage(t) }

// cropToSegments restricts series to the active segments. A nil list
// means no restriction.
func cropToSegments(series []*model.TimeSeries, active model.SegmentList) []*model.TimeSeries {
	if active == nil {
		return series
	}
	var out []*model.TimeSeries
	for _, ts := range series {
		for _, seg := range active {
			if seg.Start >= ts.End() || seg.End <= ts.Epoch {
				continue
			}
			if cropped := ts.Crop(seg.Start, seg.End); len(cropped.Samples) > 0 {
				out = append(out, cropped)
			}
		}
	}
	return out
}

// ParseChannels parses channel names with the run's trend defaulting.
func ParseChannels(names []string, gpsMode bool) ([]*model.Channel, error) {
	out := make([]*model.Channel, 0, len(names))
	for _, name := range names {
		ch, err := model.ParseChannel(name, gpsMode)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// triggerTab renders time-frequency trigger figures for its channels.
type triggerTab struct {
	base
	etg string
}

func newTriggerTab(section string, ini *config.INI, states []model.State) (Tab, error) {
	b, err := parseBase(section, ini, states)
	if err != nil {
		return nil, err
	}
	etg := config.DefaultETG
	if v, ok := ini.Get(section, "etg"); ok && v != "" {
		etg = v
	}
	return &triggerTab{base: b, etg: etg}, nil
}

func (t *triggerTab) Requires() Requirement {
	var req Requirement
	for _, p := range t.plots {
		req.Channels = appendUnique(req.Channels, p.Sources...)
	}
	req.ETGs = []string{t.etg}
	return req
}

func (t *triggerTab) AssignHrefs(deps *Deps) {
	for _, state := range t.states {
		for _, p := range t.plots {
			for _, source := range p.Sources {
				if p.Href == "" {
					p.Href = figurePath(deps, source+"-"+t.etg, "triggers", state)
				}
			}
		}
	}
}

func (t *triggerTab) Process(ctx context.Context, deps *Deps) error {
	for _, state := range t.states {
		active, err := stateSegments(ctx, state, deps)
		if err != nil {
			return fmt.Errorf("tab %q: %w", t.name, err)
		}
		for _, p := range t.plots {
			for _, source := range p.Sources {
				href := figurePath(deps, source+"-"+t.etg, "triggers", state)
				if p.Href == "" {
					p.Href = href
				}
				if !deps.MarkRendered(href) {
					continue
				}
				channel, err := model.ParseChannel(source, deps.Config.GPSMode())
				if err != nil {
					return fmt.Errorf("tab %q: %w", t.name, err)
				}
				rows, err := triggers.GetTriggers(deps.Triggers, t.etg, channel, deps.Span, deps.TriggerCache)
				if err != nil {
					if err = deps.DataOpts.Policy.Apply(err, deps.Logger, "trigger fetch failed", "tab", t.name); err != nil {
						return fmt.Errorf("tab %q: %w", t.name, err)
					}
					continue
				}
				rows = triggers.Filter(rows, p.Params.Float("snr", 0), active)
				file, err := figureFile(deps, href)
				if err != nil {
					return fmt.Errorf("tab %q: %w", t.name, err)
				}
				err = plot.SaveTriggerPlot(file, rows, nil, deps.Span, plot.TriggerOptions{
					Channel: source,
					ETG:     t.etg,
					Tiles:   p.Params.Bool("tiles", false),
					Params:  p.Params,
				})
				if err != nil {
					return fmt.Errorf("tab %q: %w", t.name, err)
				}
				deps.Logger.Debug("rendered figure", "tab", t.name, "figure", href)
			}
		}
	}
	return nil
}

func (t *triggerTab) WriteReport(rw ReportWriter) error { return rw.WriteTabPage(t) }

// segmentTab renders known/active bar figures for its flags.
type segmentTab struct {
	base
}

func newSegmentTab(section string, ini *config.INI, states []model.State) (Tab, error) {
	b, err := parseBase(section, ini, states)
	if err != nil {
		return nil, err
	}
	return &segmentTab{base: b}, nil
}

func (t *segmentTab) Requires() Requirement {
	var req Requirement
	for _, p := range t.plots {
		req.Flags = appendUnique(req.Flags, p.Sources...)
	}
	return req
}

func (t *segmentTab) AssignHrefs(deps *Deps) {
	for _, p := range t.plots {
		if p.Href == "" {
			p.Href = figurePath(deps, strings.Join(p.Sources, "-"), "segments", model.State{Name: model.AllState})
		}
	}
}

func (t *segmentTab) Process(ctx context.Context, deps *Deps) error {
	if err := segments.Fetch(ctx, deps.Segments, t.Requires().Flags, deps.Span, deps.SegmentOpts); err != nil {
		return fmt.Errorf("tab %q: %w", t.name, err)
	}
	for _, p := range t.plots {
		href := figurePath(deps, strings.Join(p.Sources, "-"), "segments", model.State{Name: model.AllState})
		if p.Href == "" {
			p.Href = href
		}
		if !deps.MarkRendered(href) {
			continue
		}
		var flags []*model.DataQualityFlag
		for _, source := range p.Sources {
			if flag, ok := deps.Segments.Get(source); ok {
				flags = append(flags, flag)
			}
		}
		if len(flags) == 0 {
			deps.Logger.Warn("no segments for figure", "tab", t.name, "figure", href)
			continue
		}
		file, err := figureFile(deps, href)
		if err != nil {
			return fmt.Errorf("tab %q: %w", t.name, err)
		}
		err = plot.SaveSegmentPlot(file, flags, deps.Span, plot.SegmentOptions{
			Params: p.Params,
		})
		if err != nil {
			return fmt.Errorf("tab %q: %w", t.name, err)
		}
		deps.Logger.Debug("rendered figure", "tab", t.name, "figure", href)
	}
	return nil
}

func (t *segmentTab) WriteReport(rw ReportWriter) error { return rw.WriteTabPage(t) }

// placeholderTab is an auto-created parent for children naming a parent
// that no section defines. It carries no figures of its own.
type placeholderTab struct {
	name string
}

func (t *placeholderTab) Name() string            { return t.name }
func (t *placeholderTab) ParentName() string      { return "" }
func (t *placeholderTab) Path() string            { return pathSegment(t.name) }
func (t *placeholderTab) States() []model.State   { return []model.State{{Name: model.AllState}} }
func (t *placeholderTab) Layout() []int           { return defaultLayout }
func (t *placeholderTab) Plots() []*Plot          { return nil }
func (t *placeholderTab) Requires() Requirement   { return Requirement{} }
func (t *placeholderTab) AssignHrefs(*Deps)       {}
func (t *placeholderTab) Process(context.Context, *Deps) error { return nil }
func (t *placeholderTab) WriteReport(rw ReportWriter) error    { return rw.WriteTabPage(t) }
