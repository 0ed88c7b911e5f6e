package triggers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	rows := []model.Trigger{
		{Time: 110, Frequency: 100, SNR: 1},
		{Time: 150, Frequency: 200, SNR: 5},
		{Time: 250, Frequency: 300, SNR: 10},
	}

	t.Run("snr threshold is strict", func(t *testing.T) {
		t.Parallel()
		got := Filter(rows, 4, nil)
		if len(got) != 2 {
			t.Fatalf("got %d rows, want 2", len(got))
		}
		if got[0].SNR != 5 || got[1].SNR != 10 {
			t.Errorf("rows = %v", got)
		}
	})

	t.Run("equal snr excluded", func(t *testing.T) {
		t.Parallel()
		got := Filter(rows, 5, nil)
		if len(got) != 1 || got[0].SNR != 10 {
			t.Errorf("rows = %v, want only SNR 10", got)
		}
	})

	t.Run("segment restriction", func(t *testing.T) {
		t.Parallel()
		active := model.SegmentList{{Start: 100, End: 200}}
		got := Filter(rows, 4, active)
		// SNR 5 at t=150 is inside [100, 200); SNR 10 at t=250 is not.
		if len(got) != 1 || got[0].Time != 150 {
			t.Errorf("rows = %v, want only t=150", got)
		}
	})

	t.Run("empty active list rejects everything", func(t *testing.T) {
		t.Parallel()
		got := Filter(rows, 0, model.SegmentList{})
		if len(got) != 0 {
			t.Errorf("rows = %v, want none", got)
		}
	})

	t.Run("nil segments means unrestricted", func(t *testing.T) {
		t.Parallel()
		got := Filter(rows, 0, nil)
		if len(got) != 3 {
			t.Errorf("got %d rows, want all 3", len(got))
		}
	})
}

func writeTriggerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triggers.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write trigger file: %v", err)
	}
	return path
}

func TestReadTriggerFile(t *testing.T) {
	t.Parallel()

	t.Run("core and extra columns", func(t *testing.T) {
		t.Parallel()
		path := writeTriggerFile(t, "time,frequency,snr,duration,amplitude\n100.5,64,8.2,0.25,1e-21\n")
		rows, err := ReadTriggerFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows", len(rows))
		}
		row := rows[0]
		if row.Time != 100.5 || row.Frequency != 64 || row.SNR != 8.2 || row.Duration != 0.25 {
			t.Errorf("row = %+v", row)
		}
		if v, ok := row.Column("amplitude"); !ok || v != 1e-21 {
			t.Errorf("amplitude = %v, %v", v, ok)
		}
	})

	t.Run("column subset", func(t *testing.T) {
		t.Parallel()
		path := writeTriggerFile(t, "time,frequency,snr,duration,amplitude\n100.5,64,8.2,0.25,1e-21\n")
		rows, err := ReadTriggerFile(path, "duration")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows", len(rows))
		}
		row := rows[0]
		// The required columns and the requested one are read.
		if row.Time != 100.5 || row.Frequency != 64 || row.SNR != 8.2 || row.Duration != 0.25 {
			t.Errorf("row = %+v", row)
		}
		if _, ok := row.Column("amplitude"); ok {
			t.Error("unrequested column should be skipped")
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		t.Parallel()
		path := writeTriggerFile(t, "time,frequency\n1,2\n")
		if _, err := ReadTriggerFile(path); err == nil {
			t.Error("expected error for missing snr column")
		}
	})

	t.Run("non-numeric cell", func(t *testing.T) {
		t.Parallel()
		path := writeTriggerFile(t, "time,frequency,snr\n1,2,loud\n")
		if _, err := ReadTriggerFile(path); err == nil {
			t.Error("expected error for non-numeric snr")
		}
	})
}

func TestGetTriggers(t *testing.T) {
	t.Parallel()

	path := writeTriggerFile(t, "time,frequency,snr\n50,10,6\n150,20,7\n250,30,8\n")
	c := &cache.Cache{Kind: cache.Trigger, Entries: []cache.Entry{{
		Observatory: "H",
		Tag:         "H1_OMICRON",
		Span:        gpstime.Span{Start: 0, End: 300},
		Path:        path,
	}}}
	ch, err := model.ParseChannel("H1:GDS-CALIB_STRAIN", false)
	if err != nil {
		t.Fatalf("parse channel: %v", err)
	}

	store := NewStore()
	rows, err := GetTriggers(store, "omicron", ch, gpstime.Span{Start: 100, End: 300}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows in span, want 2", len(rows))
	}

	t.Run("second call served from store", func(t *testing.T) {
		// Cache removed: a re-read would fail.
		rows, err := GetTriggers(store, "omicron", ch, gpstime.Span{Start: 0, End: 300}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("got %d rows, want all 3 from store", len(rows))
		}
	})

	t.Run("unknown etg yields no rows", func(t *testing.T) {
		rows, err := GetTriggers(NewStore(), "kleinewelle", ch, gpstime.Span{Start: 0, End: 300}, c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("got %d rows, want none", len(rows))
		}
	})
}
