package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gwdetchar/gwsummary/internal/data"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPath(t *testing.T) {
	t.Parallel()

	span := gpstime.Span{Start: 1187000000, End: 1187086400}
	got := Path("/archives", "L1", "DAILY", span)
	want := filepath.Join("/archives", "L1-DAILY-1187000000-86400.sqlite")
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func filledStores() Stores {
	d := data.NewStore()
	d.Add(&model.TimeSeries{
		Channel:    "L1:TEST-CHAN",
		Epoch:      1000,
		SampleRate: 16,
		Unit:       "m",
		Samples:    []float64{1, 2, 3, 4},
	})

	s := segments.NewStore()
	s.Add(&model.DataQualityFlag{
		Name:   "L1:DMT-ANALYSIS_READY:1",
		Known:  model.SegmentList{{Start: 0, End: 2000}},
		Active: model.SegmentList{{Start: 100, End: 900}},
	})

	tr := triggers.NewStore()
	tr.Add("omicron", "L1:TEST-CHAN", []model.Trigger{
		{Time: 500, Frequency: 64, SNR: 9, Extra: map[string]float64{"amplitude": 1e-21}},
		{Time: 600, Frequency: 128, SNR: 5.5},
	})

	return Stores{Data: d, Segments: s, Triggers: tr}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "L1-TEST-0-2000.sqlite")
	ctx := context.Background()

	if err := Write(ctx, path, filledStores(), discard()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := Stores{
		Data:     data.NewStore(),
		Segments: segments.NewStore(),
		Triggers: triggers.NewStore(),
	}
	if err := Read(ctx, path, got, discard()); err != nil {
		t.Fatalf("read: %v", err)
	}

	series := got.Data.Get("L1:TEST-CHAN", gpstime.Span{Start: 1000, End: 1004})
	if len(series) != 1 {
		t.Fatalf("got %d series", len(series))
	}
	ts := series[0]
	if ts.SampleRate != 16 || ts.Unit != "m" || len(ts.Samples) != 4 {
		t.Errorf("series = %+v", ts)
	}

	flag, ok := got.Segments.Get("L1:DMT-ANALYSIS_READY:1")
	if !ok {
		t.Fatal("flag not restored")
	}
	if flag.Active.Duration() != 800 {
		t.Errorf("active duration = %v, want 800", flag.Active.Duration())
	}

	rows := got.Triggers.Get("omicron", "L1:TEST-CHAN", gpstime.Span{Start: 0, End: 2000})
	if len(rows) != 2 {
		t.Fatalf("got %d triggers", len(rows))
	}
	if v, ok := rows[0].Column("amplitude"); !ok || v != 1e-21 {
		t.Errorf("extra column = %v, %v", v, ok)
	}
}

func TestWriteReplacesAndDropsBackup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "L1-TEST-0-2000.sqlite")
	ctx := context.Background()

	if err := Write(ctx, path, filledStores(), discard()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := Write(ctx, path, filledStores(), discard()); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Error("backup should be removed after a successful write")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("archive missing: %v", err)
	}
}

func TestReadMissingArchive(t *testing.T) {
	t.Parallel()

	err := Read(context.Background(), filepath.Join(t.TempDir(), "none.sqlite"), Stores{
		Data: data.NewStore(),
	}, discard())
	if err != nil {
		t.Fatalf("missing archive should not error: %v", err)
	}
}
