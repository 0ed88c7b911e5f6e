package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
)

// writeCache writes cache file content into a temp dir and returns its path.
func writeCache(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lcf")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write cache file: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("valid cache", func(t *testing.T) {
		t.Parallel()
		path := writeCache(t, strings.Join([]string{
			"# comment line",
			"H H1_HOFT 1000 100 /data/H-H1_HOFT-1000-100.gwf",
			"",
			"H H1_HOFT 1100 100 /data/H-H1_HOFT-1100-100.gwf",
		}, "\n"))

		c, err := Open(path, Data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", c.Len())
		}
		e := c.Entries[0]
		if e.Observatory != "H" || e.Tag != "H1_HOFT" {
			t.Errorf("unexpected entry: %+v", e)
		}
		if e.Span.Start != 1000 || e.Span.End != 1100 {
			t.Errorf("span = %v, want [1000, 1100)", e.Span)
		}
	})

	t.Run("malformed line reports file and line", func(t *testing.T) {
		t.Parallel()
		path := writeCache(t, "H H1_HOFT 1000\n")
		_, err := Open(path, Data)
		if err == nil {
			t.Fatal("expected error for malformed line")
		}
		if !strings.Contains(err.Error(), ":1:") {
			t.Errorf("error should name the line: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(filepath.Join(t.TempDir(), "nope.lcf"), Trigger); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestSieve(t *testing.T) {
	t.Parallel()

	c := &Cache{Kind: Data, Entries: []Entry{
		{Tag: "A", Span: gpstime.Span{Start: 0, End: 100}, Path: "a"},
		{Tag: "B", Span: gpstime.Span{Start: 100, End: 200}, Path: "b"},
		{Tag: "C", Span: gpstime.Span{Start: 200, End: 300}, Path: "c"},
	}}

	tests := []struct {
		name string
		span gpstime.Span
		want []string
	}{
		{
			name: "middle overlap",
			span: gpstime.Span{Start: 150, End: 250},
			want: []string{"b", "c"},
		},
		{
			name: "covers all",
			span: gpstime.Span{Start: 0, End: 300},
			want: []string{"a", "b", "c"},
		},
		{
			name: "no overlap",
			span: gpstime.Span{Start: 500, End: 600},
			want: nil,
		},
		{
			name: "boundary touch is not overlap",
			span: gpstime.Span{Start: 300, End: 400},
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Sieve(tt.span).Paths()
			if len(got) == 0 {
				got = nil
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Sieve(%v) = %v, want %v", tt.span, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Sieve(%v)[%d] = %q, want %q", tt.span, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSieveTag(t *testing.T) {
	t.Parallel()

	c := &Cache{Kind: Trigger, Entries: []Entry{
		{Tag: "H1_OMICRON", Path: "a"},
		{Tag: "H1_KLEINEWELLE", Path: "b"},
		{Tag: "L1_OMICRON", Path: "c"},
	}}

	got := c.SieveTag("omicron").Paths()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("SieveTag(omicron) = %v, want [a c]", got)
	}
}
