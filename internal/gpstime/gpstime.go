// Package gpstime converts between GPS time and UTC, and parses the
// time arguments accepted on the command line.
//
// GPS time counts seconds since 1980-01-06 00:00:00 UTC and, unlike UTC,
// does not insert leap seconds. Conversion therefore needs the table of
// leap seconds announced since the GPS epoch.
package gpstime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Epoch is the GPS epoch: 1980-01-06 00:00:00 UTC.
var Epoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// leapSeconds lists the UTC instants at which a leap second took effect
// after the GPS epoch. The GPS-UTC offset at any time is the number of
// entries at or before that time.
var leapSeconds = []time.Time{
	time.Date(1981, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1982, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1983, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1985, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1988, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1991, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1992, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1993, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1994, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1997, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2006, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2012, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// offsetAt returns the GPS-UTC offset in effect at the given UTC time.
func offsetAt(t time.Time) int64 {
	var n int64
	for _, ls := range leapSeconds {
		if t.Before(ls) {
			break
		}
		n++
	}
	return n
}

// gpsOffsetAt returns the GPS-UTC offset in effect at the given GPS
// second count. Each leap second shifts the GPS count of later entries,
// so the table is walked in GPS coordinates.
func gpsOffsetAt(gps int64) int64 {
	var n int64
	for i, ls := range leapSeconds {
		at := ls.Unix() - Epoch.Unix() + int64(i) // GPS second of this leap
		if gps < at {
			break
		}
		n++
	}
	return n
}

// ToGPS converts a UTC time to GPS seconds.
func ToGPS(t time.Time) int64 {
	return t.Unix() - Epoch.Unix() + offsetAt(t)
}

// FromGPS converts GPS seconds to UTC.
func FromGPS(gps int64) time.Time {
	return time.Unix(Epoch.Unix()+gps-gpsOffsetAt(gps), 0).UTC()
}

// Now returns the current time as GPS seconds.
func Now() int64 {
	return ToGPS(time.Now().UTC())
}

// Parse interprets a GPS-convertible command-line argument. Accepted
// forms, in order of preference:
//
//   - integer or float GPS seconds ("1126259462")
//   - "now", "today", "yesterday" (midnight UTC for the latter two)
//   - YYYYMMDD dates ("20150914")
//   - RFC 3339 timestamps ("2015-09-14T09:50:45Z")
func Parse(arg string) (float64, error) {
	s := strings.TrimSpace(arg)
	if s == "" {
		return 0, fmt.Errorf("empty time argument")
	}

	switch strings.ToLower(s) {
	case "now":
		return float64(Now()), nil
	case "today":
		y, m, d := time.Now().UTC().Date()
		return float64(ToGPS(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))), nil
	case "yesterday":
		y, m, d := time.Now().UTC().AddDate(0, 0, -1).Date()
		return float64(ToGPS(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))), nil
	}

	// Bare numbers are GPS seconds. An 8-digit integer is ambiguous with
	// YYYYMMDD; GPS times in the detector era are 9-10 digits, so 8-digit
	// strings are treated as dates.
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if len(s) != 8 || strings.ContainsAny(s, ".eE+-") {
			return v, nil
		}
	}

	if t, err := ParseDate(s); err == nil {
		return float64(ToGPS(t)), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return float64(ToGPS(t.UTC())), nil
	}

	return 0, fmt.Errorf("cannot parse %q as GPS time or date", arg)
}

// ParseDate parses a YYYYMMDD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYYMMDD", s)
	}
	return t.UTC(), nil
}
