// Package segments fetches data-quality segments from segment files or
// a segment-database endpoint, with per-source error-policy handling.
//
// Results are deduplicated in a Store keyed by flag name: a flag is
// queried once per run no matter how many tabs reference it.
package segments

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

// Store holds fetched flags for one run.
type Store struct {
	mu    sync.RWMutex
	flags map[string]*model.DataQualityFlag
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{flags: make(map[string]*model.DataQualityFlag)}
}

// Add records a flag, merging with any previous result for the same
// name.
func (s *Store) Add(flag *model.DataQualityFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.flags[flag.Name]; ok {
		prev.Known = prev.Known.Union(flag.Known)
		prev.Active = prev.Active.Union(flag.Active)
		return
	}
	s.flags[flag.Name] = &model.DataQualityFlag{
		Name:   flag.Name,
		Known:  flag.Known.Coalesce(),
		Active: flag.Active.Coalesce(),
	}
}

// Get returns the stored flag, or false when it was never fetched.
func (s *Store) Get(name string) (*model.DataQualityFlag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[name]
	return f, ok
}

// Names returns the stored flag names, unordered.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.flags))
	for name := range s.flags {
		out = append(out, name)
	}
	return out
}

// Options configures a fetch.
type Options struct {
	// Cache lists segment files to read. When set, files win over the
	// database.
	Cache *cache.Cache

	// DatabaseURL is the segment-database endpoint. Ignored when a
	// cache is given.
	DatabaseURL string

	// Policy decides what a query failure does to the run.
	Policy config.ErrorPolicy

	// Logger receives warn-policy messages. Required.
	Logger *slog.Logger

	// Client overrides the HTTP client, for tests. Nil means a client
	// with a 60s timeout.
	Client *http.Client
}

// Fetch queries every named flag over the span and records the results
// in the store. Flags already present are not re-queried. A query
// failure is handled per the policy; under warn/ignore the flag is
// stored with empty segments so later lookups see a defined, empty
// result.
func Fetch(ctx context.Context, store *Store, names []string, span gpstime.Span, opts Options) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := store.Get(name); ok {
			continue
		}
		flag, err := fetchOne(ctx, name, span, opts)
		if err != nil {
			if perr := opts.Policy.Apply(err, opts.Logger, "segment query failed", "flag", name); perr != nil {
				return fmt.Errorf("get segments for %s: %w", name, perr)
			}
			flag = &model.DataQualityFlag{Name: name}
		}
		store.Add(flag)
	}
	return nil
}

func fetchOne(ctx context.Context, name string, span gpstime.Span, opts Options) (*model.DataQualityFlag, error) {
	if opts.Cache != nil && opts.Cache.Len() > 0 {
		return readFromCache(name, span, opts.Cache)
	}
	if opts.DatabaseURL != "" {
		return queryDatabase(ctx, name, span, opts)
	}
	return nil, fmt.Errorf("no segment source configured for %s", name)
}

// readFromCache reads segwizard-format segment files listed in the
// cache. A file's cache entry span counts as known time; its lines are
// the active segments. Only entries whose tag matches the flag are
// read.
func readFromCache(name string, span gpstime.Span, c *cache.Cache) (*model.DataQualityFlag, error) {
	flag := &model.DataQualityFlag{Name: name}
	matched := c.SieveTag(flagTag(name)).Sieve(span)
	if matched.Len() == 0 {
		return nil, fmt.Errorf("no segment files for %s in %s", name, span)
	}
	for _, entry := range matched.Entries {
		active, err := readSegwizard(entry.Path)
		if err != nil {
			return nil, err
		}
		flag.Known = append(flag.Known, model.Segment{Start: entry.Span.Start, End: entry.Span.End})
		flag.Active = append(flag.Active, active...)
	}
	flag.Known = flag.Known.Coalesce().Intersect(model.SegmentList{{Start: span.Start, End: span.End}})
	flag.Active = flag.Active.Coalesce().Intersect(flag.Known)
	return flag, nil
}

// flagTag converts a flag name to the tag convention used in cache
// files: "H1:DMT-ANALYSIS_READY:1" is listed as "H1_DMT_ANALYSIS_READY_1".
func flagTag(name string) string {
	return strings.NewReplacer(":", "_", "-", "_").Replace(name)
}

// readSegwizard parses a segment file of "start end" lines. Four-column
// segwizard files ("index start end duration") are accepted too.
func readSegwizard(path string) (model.SegmentList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment file: %w", err)
	}
	defer f.Close()

	var out model.SegmentList
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		var si, ei int
		switch len(fields) {
		case 2:
			si, ei = 0, 1
		case 4:
			si, ei = 1, 2
		default:
			return nil, fmt.Errorf("%s:%d: malformed segment line %q", path, line, text)
		}
		start, err := strconv.ParseFloat(fields[si], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		end, err := strconv.ParseFloat(fields[ei], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if end < start {
			return nil, fmt.Errorf("%s:%d: segment ends before it starts", path, line)
		}
		out = append(out, model.Segment{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read segment file: %w", err)
	}
	return out, nil
}

// dbResponse is the segment-database JSON payload.
type dbResponse struct {
	Known  [][2]float64 `json:"known"`
	Active [][2]float64 `json:"active"`
}

// queryDatabase asks the segment database for one flag over the span.
func queryDatabase(ctx context.Context, name string, span gpstime.Span, opts Options) (*model.DataQualityFlag, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	u, err := url.Parse(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("segment database url: %w", err)
	}
	q := u.Query()
	q.Set("flag", name)
	q.Set("start", strconv.FormatInt(int64(span.Start), 10))
	q.Set("end", strconv.FormatInt(int64(span.End), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segment database query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment database returned %s for %s", resp.Status, name)
	}

	var payload dbResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("segment database response: %w", err)
	}

	flag := &model.DataQualityFlag{Name: name}
	for _, s := range payload.Known {
		flag.Known = append(flag.Known, model.Segment{Start: s[0], End: s[1]})
	}
	for _, s := range payload.Active {
		flag.Active = append(flag.Active, model.Segment{Start: s[0], End: s[1]})
	}
	window := model.SegmentList{{Start: span.Start, End: span.End}}
	flag.Known = flag.Known.Coalesce().Intersect(window)
	flag.Active = flag.Active.Coalesce().Intersect(flag.Known)
	return flag, nil
}
