package model

import (
	"fmt"
	"sort"
)

// Segment is a half-open GPS interval [Start, End) during which a
// data-quality flag was active or known.
type Segment struct {
	Start float64
	End   float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t lies inside the half-open interval.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// String renders the segment in segwizard style.
func (s Segment) String() string {
	return fmt.Sprintf("%d %d", int64(s.Start), int64(s.End))
}

// SegmentList is an ordered list of segments. Operations that produce a
// SegmentList return it coalesced: sorted, with overlapping and abutting
// segments merged.
type SegmentList []Segment

// Coalesce sorts the list and merges overlapping or touching segments,
// returning a new list.
func (l SegmentList) Coalesce() SegmentList {
	if len(l) == 0 {
		return nil
	}
	sorted := make(SegmentList, len(l))
	copy(sorted, l)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := SegmentList{sorted[0]}
	for _, seg := range sorted[1:] {
		last := &out[len(out)-1]
		if seg.Start <= last.End {
			if seg.End > last.End {
				last.End = seg.End
			}
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Contains reports whether t lies inside any segment of the list.
func (l SegmentList) Contains(t float64) bool {
	// Binary search over the coalesced invariant would be possible, but
	// lists here are short (per-day detector states).
	for _, seg := range l {
		if seg.Contains(t) {
			return true
		}
	}
	return false
}

// Duration returns the summed length of all segments.
func (l SegmentList) Duration() float64 {
	var total float64
	for _, seg := range l {
		total += seg.Duration()
	}
	return total
}

// Intersect returns the overlap of two segment lists, coalesced.
func (l SegmentList) Intersect(o SegmentList) SegmentList {
	var out SegmentList
	for _, a := range l {
		for _, b := range o {
			lo, hi := a.Start, a.End
			if b.Start > lo {
				lo = b.Start
			}
			if b.End < hi {
				hi = b.End
			}
			if lo < hi {
				out = append(out, Segment{Start: lo, End: hi})
			}
		}
	}
	return out.Coalesce()
}

// Union returns the union of two segment lists, coalesced.
func (l SegmentList) Union(o SegmentList) SegmentList {
	merged := make(SegmentList, 0, len(l)+len(o))
	merged = append(merged, l...)
	merged = append(merged, o...)
	return merged.Coalesce()
}

// DataQualityFlag couples a named flag with the segments during which it
// was known (queryable) and active.
type DataQualityFlag struct {
	// Name is the full flag name, e.g. "H1:DMT-ANALYSIS_READY:1".
	Name string

	// Known lists the segments during which the flag state is defined.
	Known SegmentList

	// Active lists the segments during which the flag was active.
	Active SegmentList
}

// IFO returns the interferometer prefix of the flag name, or "" if the
// name carries none.
func (f *DataQualityFlag) IFO() string {
	for i, r := range f.Name {
		if r == ':' {
			return f.Name[:i]
		}
	}
	return ""
}
