// Package triggers reads event-trigger files and filters trigger rows
// by SNR and segment membership.
package triggers

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

// Store holds fetched triggers for one run, keyed by ETG and channel.
type Store struct {
	mu   sync.RWMutex
	rows map[string][]model.Trigger
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{rows: make(map[string][]model.Trigger)}
}

func key(etg, channel string) string {
	return strings.ToLower(etg) + "|" + channel
}

// Add records triggers for an ETG/channel pair, keeping time order.
func (s *Store) Add(etg, channel string, rows []model.Trigger) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(etg, channel)
	merged := append(s.rows[k], rows...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time < merged[j].Time })
	s.rows[k] = merged
}

// Get returns the stored triggers for an ETG/channel pair inside the
// span.
func (s *Store) Get(etg, channel string, span gpstime.Span) []model.Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Trigger
	for _, row := range s.rows[key(etg, channel)] {
		if span.Contains(row.Time) {
			out = append(out, row)
		}
	}
	return out
}

// Each calls fn for every stored ETG/channel pair. Used when dumping
// the store into an archive.
func (s *Store) Each(fn func(etg, channel string, rows []model.Trigger)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, rows := range s.rows {
		etg, channel, _ := strings.Cut(k, "|")
		fn(etg, channel, rows)
	}
}

// Has reports whether any triggers are stored for the pair.
func (s *Store) Has(etg, channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[key(etg, channel)]
	return ok
}

// GetTriggers reads all trigger files for one ETG/channel pair from the
// cache into the store and returns the rows inside the span. Files are
// matched by ETG tag; rows outside the span are kept in the store for
// later spans but not returned. When columns are given, only those
// trigger-file columns are read.
func GetTriggers(store *Store, etg string, channel *model.Channel, span gpstime.Span, c *cache.Cache, columns ...string) ([]model.Trigger, error) {
	if store.Has(etg, channel.String()) {
		return store.Get(etg, channel.String(), span), nil
	}
	if c == nil || c.Len() == 0 {
		return nil, fmt.Errorf("no trigger cache for %s/%s", etg, channel)
	}

	matched := c.SieveTag(etg).Sieve(span)
	var rows []model.Trigger
	for _, entry := range matched.Entries {
		fileRows, err := ReadTriggerFile(entry.Path, columns...)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	store.Add(etg, channel.String(), rows)
	return store.Get(etg, channel.String(), span), nil
}

// requiredColumns are always read: every consumer needs the event time
// and the plot defaults draw frequency colored by SNR.
var requiredColumns = []string{"time", "frequency", "snr"}

// ReadTriggerFile reads a CSV trigger file. The header names the
// columns; "time", "frequency", and "snr" are required, "duration" and
// "bandwidth" are recognized, and any other column lands in Extra.
//
// When columns are given, only those (plus the required three) are
// read; the rest of the file is skipped.
func ReadTriggerFile(path string, columns ...string) ([]model.Trigger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trigger file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: trigger file missing %q column", path, required)
		}
	}
	if len(columns) > 0 {
		keep := make(map[string]bool, len(columns)+len(requiredColumns))
		for _, name := range columns {
			keep[strings.ToLower(strings.TrimSpace(name))] = true
		}
		for _, name := range requiredColumns {
			keep[name] = true
		}
		for name := range cols {
			if !keep[name] {
				delete(cols, name)
			}
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := make([]model.Trigger, 0, len(records))
	for i, rec := range records {
		row := model.Trigger{}
		for name, col := range cols {
			if col >= len(rec) {
				return nil, fmt.Errorf("%s: row %d: short record", path, i+2)
			}
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: column %q: %w", path, i+2, name, err)
			}
			switch name {
			case "time":
				row.Time = v
			case "frequency":
				row.Frequency = v
			case "snr":
				row.SNR = v
			case "duration":
				row.Duration = v
			case "bandwidth":
				row.Bandwidth = v
			default:
				if row.Extra == nil {
					row.Extra = make(map[string]float64)
				}
				row.Extra[name] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Filter returns the rows with SNR strictly above minSNR whose time
// falls inside the active segments. A nil segment list means no segment
// restriction.
func Filter(rows []model.Trigger, minSNR float64, active model.SegmentList) []model.Trigger {
	var out []model.Trigger
	for _, row := range rows {
		if row.SNR <= minSNR {
			continue
		}
		if active != nil && !active.Contains(row.Time) {
			continue
		}
		out = append(out, row)
	}
	return out
}
