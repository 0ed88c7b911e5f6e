// Package data fetches time-series data for channels from cached frame
// files (CSV series) or an NDS endpoint, deduplicating per run.
//
// Reads are parallelized per file with a bounded errgroup; the degree
// of parallelism comes from the run configuration. The tools never
// recompute anything a prior run archived: the store is pre-populated
// from the archive before any fetch happens.
package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

// Store holds fetched time series keyed by full channel name (including
// type suffix), each as an ordered list of disjoint series.
type Store struct {
	mu     sync.RWMutex
	series map[string][]*model.TimeSeries
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{series: make(map[string][]*model.TimeSeries)}
}

// Add records a series, keeping the per-channel list ordered by epoch.
// A series wholly inside an existing one is dropped.
func (s *Store) Add(ts *model.TimeSeries) {
	if ts == nil || len(ts.Samples) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.series[ts.Channel]
	for _, have := range list {
		if ts.Epoch >= have.Epoch && ts.End() <= have.End() {
			return
		}
	}
	list = append(list, ts)
	sort.Slice(list, func(i, j int) bool { return list[i].Epoch < list[j].Epoch })
	s.series[ts.Channel] = list
}

// Get returns the stored series for a channel cropped to the span, in
// epoch order.
func (s *Store) Get(channel string, span gpstime.Span) []*model.TimeSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.TimeSeries
	for _, ts := range s.series[channel] {
		if ts.Epoch < span.End && ts.End() > span.Start {
			out = append(out, ts.Crop(span.Start, span.End))
		}
	}
	return out
}

// All returns every stored series, for archiving.
func (s *Store) All() []*model.TimeSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.TimeSeries
	for _, list := range s.series {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Epoch < out[j].Epoch
	})
	return out
}

// Covered reports whether the stored series for a channel cover the
// whole span with no gap.
func (s *Store) Covered(channel string, span gpstime.Span) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at := span.Start
	for _, ts := range s.series[channel] {
		if ts.Epoch > at {
			return false
		}
		if ts.End() > at {
			at = ts.End()
		}
		if at >= span.End {
			return true
		}
	}
	return at >= span.End
}

// Options configures a fetch.
type Options struct {
	// Cache lists series files to read. When set, files win over NDS.
	Cache *cache.Cache

	// NDSURL is the NDS proxy endpoint for channels not found in the
	// cache, or forced via the CLI toggle.
	NDSURL string

	// Processes bounds the parallel file reads.
	Processes int

	// Policy decides what a data-discovery failure does to the run.
	Policy config.ErrorPolicy

	// Logger receives warn-policy messages. Required.
	Logger *slog.Logger

	// Client overrides the HTTP client, for tests.
	Client *http.Client
}

// GetTimeSeriesDict fetches the given channels over the span into the
// store. Channels already covered (from the archive or an earlier tab)
// are skipped. File reads run in parallel, bounded by Processes.
func GetTimeSeriesDict(ctx context.Context, store *Store, channels []*model.Channel, span gpstime.Span, opts Options) error {
	want := make(map[string]*model.Channel)
	for _, ch := range channels {
		key := ch.String()
		if store.Covered(key, span) {
			continue
		}
		want[key] = ch
	}
	if len(want) == 0 {
		return nil
	}

	if opts.Cache != nil && opts.Cache.Len() > 0 {
		if err := readCachedSeries(ctx, store, want, span, opts); err != nil {
			return err
		}
	}

	// Anything still uncovered falls through to NDS.
	if opts.NDSURL != "" {
		for key, ch := range want {
			if store.Covered(key, span) {
				continue
			}
			ts, err := fetchNDS(ctx, ch, span, opts)
			if err != nil {
				if perr := opts.Policy.Apply(err, opts.Logger, "NDS fetch failed", "channel", key); perr != nil {
					return fmt.Errorf("get timeseries for %s: %w", key, perr)
				}
				continue
			}
			store.Add(ts)
		}
	}
	return nil
}

// readCachedSeries reads all cache files overlapping the span in
// parallel, adding any wanted channel column found in each.
func readCachedSeries(ctx context.Context, store *Store, want map[string]*model.Channel, span gpstime.Span, opts Options) error {
	procs := opts.Processes
	if procs <= 0 {
		procs = config.DefaultProcesses
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(procs)
	for _, entry := range opts.Cache.Sieve(span).Entries {
		entry := entry
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			series, err := ReadSeriesFile(entry.Path)
			if err != nil {
				return opts.Policy.Apply(err, opts.Logger, "series file read failed", "path", entry.Path)
			}
			for key, ts := range series {
				if _, ok := want[key]; !ok {
					continue
				}
				store.Add(ts.Crop(span.Start, span.End))
			}
			return nil
		})
	}
	return g.Wait()
}

// ReadSeriesFile reads a CSV series file: a "time" column followed by
// one column per channel, sample times uniform. The sample rate is
// inferred from the first two rows.
func ReadSeriesFile(path string) (map[string]*model.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series file: %w", err)
	}
	defer f.Close()
	return readSeries(f, path)
}

func readSeries(r io.Reader, name string) (map[string]*model.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("%s: series header must start with \"time\"", name)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: need at least two samples to infer rate", name)
	}

	times := make([]float64, len(records))
	for i, rec := range records {
		if times[i], err = strconv.ParseFloat(rec[0], 64); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", name, i+2, err)
		}
	}
	rate := 1.0 / (times[1] - times[0])

	out := make(map[string]*model.TimeSeries, len(header)-1)
	for col := 1; col < len(header); col++ {
		ts := &model.TimeSeries{
			Channel:    header[col],
			Epoch:      times[0],
			SampleRate: rate,
			Samples:    make([]float64, len(records)),
		}
		for i, rec := range records {
			if ts.Samples[i], err = strconv.ParseFloat(rec[col], 64); err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", name, i+2, err)
			}
		}
		out[ts.Channel] = ts
	}
	return out, nil
}

// fetchNDS queries the NDS proxy for one channel: the endpoint returns
// the same CSV series format the cache files use.
func fetchNDS(ctx context.Context, ch *model.Channel, span gpstime.Span, opts Options) (*model.TimeSeries, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	u, err := url.Parse(opts.NDSURL)
	if err != nil {
		return nil, fmt.Errorf("nds url: %w", err)
	}
	q := u.Query()
	q.Set("channel", ch.String())
	q.Set("start", strconv.FormatInt(int64(span.Start), 10))
	q.Set("end", strconv.FormatInt(int64(span.End), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nds query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nds returned %s for %s", resp.Status, ch)
	}

	series, err := readSeries(resp.Body, "nds response")
	if err != nil {
		return nil, err
	}
	ts, ok := series[ch.String()]
	if !ok {
		// A proxy may label the column with the bare channel name.
		ts, ok = series[ch.Name]
	}
	if !ok {
		return nil, fmt.Errorf("nds response missing channel %s", ch)
	}
	ts.Channel = ch.String()
	return ts, nil
}
