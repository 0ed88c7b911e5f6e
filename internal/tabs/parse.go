package tabs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/literal"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/plot"
)

// defaultLayout puts two figures on each row.
var defaultLayout = []int{2}

// base carries the options every tab type shares. Concrete types embed
// it and add their own processing.
type base struct {
	name   string
	parent string
	states []model.State
	layout []int
	plots  []*Plot
}

// parseBase reads the shared options of a tab section.
func parseBase(section string, ini *config.INI, available []model.State) (base, error) {
	b := base{
		name:   strings.TrimPrefix(section, config.TabSectionPrefix),
		layout: defaultLayout,
	}
	if v, ok := ini.Get(section, "name"); ok && v != "" {
		b.name = v
	}
	if v, ok := ini.Get(section, "parent"); ok && !strings.EqualFold(v, "none") {
		b.parent = v
	}

	if v, ok := ini.Get(section, "states"); ok && v != "" {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			state, err := findState(name, available)
			if err != nil {
				return base{}, fmt.Errorf("section [%s]: %w", section, err)
			}
			b.states = append(b.states, state)
		}
	}
	if len(b.states) == 0 {
		b.states = []model.State{{Name: model.AllState}}
	}

	if v, ok := ini.Get(section, "layout"); ok && v != "" {
		layout, err := parseLayout(v)
		if err != nil {
			return base{}, fmt.Errorf("section [%s]: %w", section, err)
		}
		b.layout = layout
	}

	plots, err := parsePlots(section, ini)
	if err != nil {
		return base{}, err
	}
	b.plots = plots
	return b, nil
}

func findState(name string, available []model.State) (model.State, error) {
	for _, s := range available {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return model.State{}, fmt.Errorf("unknown state %q", name)
}

// parseLayout reads a figure-grid definition. Each value is the number
// of figures on one row and must divide 12, matching the underlying
// 12-column page grid.
func parseLayout(v string) ([]int, error) {
	values, ok := literal.Ints(literal.Parse(v))
	if !ok {
		parts := strings.Split(v, ",")
		values = make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("invalid layout %q", v)
			}
			values = append(values, n)
		}
	}
	for _, n := range values {
		if n < 1 || 12%n != 0 {
			return nil, fmt.Errorf("layout value %d does not divide 12", n)
		}
	}
	return values, nil
}

// parsePlots reads the numbered figure definitions of a section. An
// all-digit option defines a figure; an "N-key" option modifies figure
// N with a display parameter.
func parsePlots(section string, ini *config.INI) ([]*Plot, error) {
	byIndex := make(map[int]*Plot)
	for _, option := range ini.OptionNames(section) {
		idx, rest, isPlot := splitPlotOption(option)
		if !isPlot {
			continue
		}
		p := byIndex[idx]
		if p == nil {
			p = &Plot{Index: idx, Params: plot.Params{}}
			byIndex[idx] = p
		}
		value, _ := ini.Get(section, option)
		if rest == "" {
			for _, src := range strings.Split(value, ",") {
				if src = strings.TrimSpace(src); src != "" {
					p.Sources = append(p.Sources, src)
				}
			}
			continue
		}
		p.Params[rest] = literal.Parse(value)
	}

	out := make([]*Plot, 0, len(byIndex))
	for idx, p := range byIndex {
		if len(p.Sources) == 0 {
			return nil, fmt.Errorf("section [%s]: figure %d has modifiers but no definition", section, idx)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// splitPlotOption decides whether an option name is a figure definition
// ("3") or modifier ("3-ylim").
func splitPlotOption(option string) (idx int, rest string, ok bool) {
	name := option
	if i := strings.Index(option, "-"); i > 0 {
		name, rest = option[:i], option[i+1:]
	}
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 {
		return 0, "", false
	}
	return idx, rest, true
}

func (b *base) Name() string          { return b.name }
func (b *base) ParentName() string    { return b.parent }
func (b *base) States() []model.State { return b.states }
func (b *base) Layout() []int         { return b.layout }
func (b *base) Plots() []*Plot        { return b.plots }

// Path converts the display name into a URL-safe directory segment.
func (b *base) Path() string {
	return pathSegment(b.name)
}

func pathSegment(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return strings.Trim(sb.String(), "_")
}
