// Package cache reads LAL-format file caches and sieves them by time
// span.
//
// A cache file lists one data file per line as
//
//	OBS TAG START DURATION PATH
//
// for example "H H1_HOFT 1126252800 4096 /data/H-H1_HOFT-1126252800-4096.gwf".
// Caches are pass-through inputs: the tools never open the listed files
// themselves except through the fetch layers, which receive the sieved
// entry list.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
)

// Kind distinguishes what the listed files contain. The sieve logic is
// identical for all kinds; the kind only routes a cache to the right
// fetcher.
type Kind int

const (
	// Data caches list time-series frame files.
	Data Kind = iota
	// Trigger caches list event-trigger files.
	Trigger
	// Segment caches list segment files.
	Segment
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Trigger:
		return "trigger"
	case Segment:
		return "segment"
	}
	return "unknown"
}

// Entry is one line of a cache file.
type Entry struct {
	// Observatory is the single-letter site prefix, e.g. "H".
	Observatory string

	// Tag describes the file contents, e.g. "H1_HOFT".
	Tag string

	// Span is the GPS interval the file covers.
	Span gpstime.Span

	// Path is the location of the file.
	Path string
}

// Cache is an ordered list of entries of one kind.
type Cache struct {
	Kind    Kind
	Entries []Entry
}

// Open reads a cache file from disk.
func Open(path string, kind Kind) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", kind, err)
	}
	defer f.Close()

	c := &Cache{Kind: kind}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		e, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		c.Entries = append(c.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s cache: %w", kind, err)
	}
	return c, nil
}

// parseLine parses one "OBS TAG START DURATION PATH" line.
func parseLine(text string) (Entry, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return Entry{}, fmt.Errorf("malformed cache line %q: want 5 fields, got %d", text, len(fields))
	}
	start, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad start time in %q: %w", text, err)
	}
	dur, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad duration in %q: %w", text, err)
	}
	if dur < 0 {
		return Entry{}, fmt.Errorf("negative duration in %q", text)
	}
	return Entry{
		Observatory: fields[0],
		Tag:         fields[1],
		Span:        gpstime.Span{Start: start, End: start + dur},
		Path:        fields[4],
	}, nil
}

// Sieve returns a new cache holding only the entries whose span
// intersects the given span. One pass, order preserved.
func (c *Cache) Sieve(span gpstime.Span) *Cache {
	out := &Cache{Kind: c.Kind}
	for _, e := range c.Entries {
		if e.Span.Intersects(span) {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// SieveTag returns a new cache holding only entries whose tag contains
// the given substring (case-insensitive). Used to restrict a mixed
// trigger cache to one ETG or channel.
func (c *Cache) SieveTag(substr string) *Cache {
	out := &Cache{Kind: c.Kind}
	needle := strings.ToLower(substr)
	for _, e := range c.Entries {
		if strings.Contains(strings.ToLower(e.Tag), needle) {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Paths returns the file paths of all entries, in order.
func (c *Cache) Paths() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Path
	}
	return out
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}
