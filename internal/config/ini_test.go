package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeINI writes content to a temp file and returns its path.
func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary.ini")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	return path
}

func TestLoadINIInterpolation(t *testing.T) {
	t.Parallel()

	t.Run("section name interpolates with ifo set", func(t *testing.T) {
		t.Parallel()
		path := writeINI(t, "[%(ifo)s-config]\nkey = value\n")
		c, err := LoadINI("H1", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !c.HasSection("H1-config") {
			t.Error("expected section H1-config after interpolation")
		}
		if c.HasSection("%(ifo)s-config") {
			t.Error("templated section should be gone")
		}
	})

	t.Run("missing ifo is a configuration error", func(t *testing.T) {
		t.Parallel()
		path := writeINI(t, "[%(ifo)s-config]\nkey = value\n")
		_, err := LoadINI("", path)
		if !errors.Is(err, ErrMissingIFO) {
			t.Fatalf("expected ErrMissingIFO, got %v", err)
		}
	})

	t.Run("values interpolate from DEFAULT section", func(t *testing.T) {
		t.Parallel()
		path := writeINI(t, "[DEFAULT]\nsite = LHO\n[tab-x]\nname = %(site)s overview\n")
		c, err := LoadINI("H1", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := c.Get("tab-x", "name")
		if !ok || got != "LHO overview" {
			t.Errorf("Get(tab-x, name) = %q, %v", got, ok)
		}
	})

	t.Run("missing option named in error", func(t *testing.T) {
		t.Parallel()
		path := writeINI(t, "[tab-x]\nname = %(nosuch)s\n")
		_, err := LoadINI("H1", path)
		if err == nil || !strings.Contains(err.Error(), "nosuch") {
			t.Fatalf("error should name the missing option, got %v", err)
		}
	})

	t.Run("ifo interpolates in values", func(t *testing.T) {
		t.Parallel()
		path := writeINI(t, "[tab-x]\nflags = %(ifo)s:DMT-ANALYSIS_READY:1\n")
		c, err := LoadINI("L1", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := c.Get("tab-x", "flags")
		if got != "L1:DMT-ANALYSIS_READY:1" {
			t.Errorf("flags = %q", got)
		}
	})
}

func TestChannelGroupExpansion(t *testing.T) {
	t.Parallel()

	path := writeINI(t, `[channels-sus]
channels = H1:SUS-ETMX_POS,H1:SUS-ETMY_POS
unit = um
frequency-range = (0.1, 10)

[H1:SUS-ETMX_POS]
unit = nm
`)
	c, err := LoadINI("H1", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("group section removed", func(t *testing.T) {
		t.Parallel()
		if c.HasSection("channels-sus") {
			t.Error("group section should be expanded away")
		}
	})

	t.Run("per-channel sections created", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"H1:SUS-ETMX_POS", "H1:SUS-ETMY_POS"} {
			if !c.HasSection(name) {
				t.Errorf("missing expanded section %q", name)
			}
		}
	})

	t.Run("group options copied", func(t *testing.T) {
		t.Parallel()
		got, ok := c.Get("H1:SUS-ETMY_POS", "frequency-range")
		if !ok || got != "(0.1, 10)" {
			t.Errorf("frequency-range = %q, %v", got, ok)
		}
	})

	t.Run("existing per-channel option wins", func(t *testing.T) {
		t.Parallel()
		got, _ := c.Get("H1:SUS-ETMX_POS", "unit")
		if got != "nm" {
			t.Errorf("unit = %q, want nm (channel section overrides group)", got)
		}
	})
}

func TestLoadINIMerging(t *testing.T) {
	t.Parallel()

	base := writeINI(t, "[tab-x]\nname = Base\nshortname = b\n")
	override := writeINI(t, "[tab-x]\nname = Override\n")

	c, err := LoadINI("H1", base, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := c.Get("tab-x", "name"); got != "Override" {
		t.Errorf("later file should override: name = %q", got)
	}
	if got, _ := c.Get("tab-x", "shortname"); got != "b" {
		t.Errorf("unrelated option lost: shortname = %q", got)
	}
}

func TestStates(t *testing.T) {
	t.Parallel()

	t.Run("no states section yields the all state", func(t *testing.T) {
		t.Parallel()
		c, err := LoadINI("H1", writeINI(t, "[tab-x]\nname = X\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		states := c.States()
		if len(states) != 1 || states[0].Name != "All" {
			t.Errorf("States() = %v, want just All", states)
		}
	})

	t.Run("configured states follow the all state", func(t *testing.T) {
		t.Parallel()
		c, err := LoadINI("H1", writeINI(t, "[states]\nObserving = %(ifo)s:DMT-ANALYSIS_READY:1\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		states := c.States()
		if len(states) != 2 {
			t.Fatalf("States() = %v", states)
		}
		if states[1].Name != "Observing" || states[1].Definition != "H1:DMT-ANALYSIS_READY:1" {
			t.Errorf("state = %+v", states[1])
		}
	})
}

func TestTabSections(t *testing.T) {
	t.Parallel()

	c, err := LoadINI("H1", writeINI(t, "[tab-b]\nname = B\n[tab-a]\nname = A\n[units]\nx = m\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.TabSections()
	if len(got) != 2 || got[0] != "tab-a" || got[1] != "tab-b" {
		t.Errorf("TabSections() = %v", got)
	}
}

