package tabs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gwdetchar/gwsummary/internal/config"
)

// stub is a minimal tab for hierarchy tests.
type stub struct {
	placeholderTab
	parent string
}

func (s *stub) ParentName() string { return s.parent }

func tab(name, parent string) Tab {
	return &stub{placeholderTab: placeholderTab{name: name}, parent: parent}
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Tab.Name()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildHierarchyOrder(t *testing.T) {
	t.Parallel()

	t.Run("four bucket order", func(t *testing.T) {
		t.Parallel()
		roots := BuildHierarchy([]Tab{
			tab("Calibration", ""),
			tab("ISI ODC", ""),
			tab("alignment", ""),
			tab("Summary", ""),
		})
		want := []string{"Summary", "ISI ODC", "alignment", "Calibration"}
		if got := names(roots); !equal(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})

	t.Run("parentless input is returned unchanged in membership", func(t *testing.T) {
		t.Parallel()
		in := []Tab{tab("B", ""), tab("A", ""), tab("C", "")}
		roots := BuildHierarchy(in)
		if len(roots) != len(in) {
			t.Fatalf("got %d roots, want %d", len(roots), len(in))
		}
		if got := names(roots); !equal(got, []string{"A", "B", "C"}) {
			t.Errorf("order = %v", got)
		}
	})

	t.Run("summary with parent sorts second", func(t *testing.T) {
		t.Parallel()
		roots := BuildHierarchy([]Tab{
			tab("Parent", ""),
			tab("Summary", "Parent"),
			tab("ODC state", "Parent"),
			tab("Zoom", "Parent"),
		})
		if len(roots) != 1 {
			t.Fatalf("got %d roots", len(roots))
		}
		want := []string{"Summary", "ODC state", "Zoom"}
		if got := names(roots[0].Children); !equal(got, want) {
			t.Errorf("children = %v, want %v", got, want)
		}
	})
}

func TestBuildHierarchyPlaceholders(t *testing.T) {
	t.Parallel()

	roots := BuildHierarchy([]Tab{
		tab("Child one", "Missing"),
		tab("Child two", "Missing"),
		tab("Other child", "Also missing"),
	})
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want one placeholder per distinct missing name", len(roots))
	}
	byName := make(map[string]*Node)
	for _, n := range roots {
		byName[n.Tab.Name()] = n
	}
	missing, ok := byName["Missing"]
	if !ok {
		t.Fatal("placeholder parent Missing not created")
	}
	if len(missing.Children) != 2 {
		t.Errorf("Missing has %d children, want 2", len(missing.Children))
	}
	for _, child := range missing.Children {
		if child.Parent != missing {
			t.Error("child parent not assigned to placeholder")
		}
	}
	if n := byName["Also missing"]; n == nil || len(n.Children) != 1 {
		t.Error("second placeholder missing or misattached")
	}
}

func TestNodeDir(t *testing.T) {
	t.Parallel()

	roots := BuildHierarchy([]Tab{
		tab("Environment", ""),
		tab("Seismic BLRMS", "Environment"),
	})
	if len(roots) != 1 {
		t.Fatalf("got %d roots", len(roots))
	}
	child := roots[0].Children[0]
	if got := child.Dir(); got != "environment/seismic_blrms" {
		t.Errorf("Dir() = %q", got)
	}
}

func loadINI(t *testing.T, content string) *config.INI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary.ini")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	c, err := config.LoadINI("L1", path)
	if err != nil {
		t.Fatalf("load ini: %v", err)
	}
	return c
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("numbered figures with modifiers", func(t *testing.T) {
		t.Parallel()
		c := loadINI(t, `
[tab-sensing]
name = Sensing
parent = Calibration
layout = 1, 2
0 = L1:OAF-CAL_DARM_DQ
0-ylim = [1e-22, 1e-18]
0-logy = True
1 = L1:LSC-SRCL_IN1_DQ, L1:LSC-MICH_IN1_DQ
`)
		built, err := FromConfig("tab-sensing", c, c.States())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built.Name() != "Sensing" || built.ParentName() != "Calibration" {
			t.Errorf("tab = %q parent %q", built.Name(), built.ParentName())
		}
		if got := built.Layout(); !equalInts(got, []int{1, 2}) {
			t.Errorf("layout = %v", got)
		}
		plots := built.Plots()
		if len(plots) != 2 {
			t.Fatalf("got %d figures", len(plots))
		}
		if lo, hi, ok := plots[0].Params.Range("ylim"); !ok || lo != 1e-22 || hi != 1e-18 {
			t.Errorf("ylim = %v %v %v", lo, hi, ok)
		}
		if !plots[0].Params.Bool("logy", false) {
			t.Error("logy modifier not applied")
		}
		if len(plots[1].Sources) != 2 {
			t.Errorf("figure 1 sources = %v", plots[1].Sources)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		t.Parallel()
		c := loadINI(t, "[tab-x]\ntype = spectrogram\n0 = L1:A\n")
		if _, err := FromConfig("tab-x", c, c.States()); err == nil {
			t.Error("expected error for unknown tab type")
		}
	})

	t.Run("layout must divide 12", func(t *testing.T) {
		t.Parallel()
		c := loadINI(t, "[tab-x]\nlayout = 5\n0 = L1:A\n")
		if _, err := FromConfig("tab-x", c, c.States()); err == nil {
			t.Error("expected error for layout value 5")
		}
	})

	t.Run("states resolved from configuration", func(t *testing.T) {
		t.Parallel()
		c := loadINI(t, `
[states]
Locked = L1:DMT-DC_READOUT_LOCKED:1

[tab-x]
states = All, Locked
0 = L1:A
`)
		built, err := FromConfig("tab-x", c, c.States())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		states := built.States()
		if len(states) != 2 || !states[0].IsAll() || states[1].Name != "Locked" {
			t.Errorf("states = %v", states)
		}
	})

	t.Run("unknown state rejected", func(t *testing.T) {
		t.Parallel()
		c := loadINI(t, "[tab-x]\nstates = Science\n0 = L1:A\n")
		if _, err := FromConfig("tab-x", c, c.States()); err == nil {
			t.Error("expected error for unknown state")
		}
	})
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFromINISelection(t *testing.T) {
	t.Parallel()

	c := loadINI(t, `
[tab-a]
name = Alpha
0 = L1:A

[tab-b]
name = Beta
0 = L1:B
`)
	all, err := FromINI(c, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d tabs", len(all))
	}

	only, err := FromINI(c, []string{"beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(only) != 1 || only[0].Name() != "Beta" {
		t.Errorf("got %d tabs from selection", len(only))
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	c := loadINI(t, `
[states]
Locked = L1:DMT-DC_READOUT_LOCKED:1

[tab-data]
states = Locked
0 = L1:A, L1:B
1 = L1:A

[tab-trig]
type = triggers
etg = omicron
0 = L1:A

[tab-seg]
type = segments
0 = L1:DMT-ANALYSIS_READY:1
`)
	list, err := FromINI(c, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := Collect(list)
	if len(req.Channels) != 2 {
		t.Errorf("channels = %v, want deduplicated pair", req.Channels)
	}
	if len(req.ETGs) != 1 || req.ETGs[0] != "omicron" {
		t.Errorf("etgs = %v", req.ETGs)
	}
	// The segment flag plus the Locked state definition.
	if len(req.Flags) != 2 {
		t.Errorf("flags = %v", req.Flags)
	}
}

func TestMarkRendered(t *testing.T) {
	t.Parallel()

	deps := &Deps{}
	if !deps.MarkRendered("plots/a.png") {
		t.Error("first mark should render")
	}
	if deps.MarkRendered("plots/a.png") {
		t.Error("second mark should skip")
	}
	if !deps.MarkRendered("plots/b.png") {
		t.Error("different figure should render")
	}
}
