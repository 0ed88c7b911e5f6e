package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Trend sample rates. Second trends carry one sample per second, minute
// trends one sample per minute.
const (
	SecondTrendRate = 1.0
	MinuteTrendRate = 1.0 / 60.0
)

// Trend types recognized in channel names of the form "NAME.mean,m-trend".
const (
	TrendTypeSecond = "s-trend"
	TrendTypeMinute = "m-trend"
	TrendTypeRaw    = "raw"
)

// ErrInvalidChannel is returned for names that do not look like
// detector channel names.
var ErrInvalidChannel = errors.New("invalid channel name")

// channelPattern matches "IFO:SYSTEM-SUBSYSTEM_SIGNAL" style names with
// an optional ".trend" statistic suffix.
var channelPattern = regexp.MustCompile(
	`^(?P<ifo>[A-Z][0-9]):(?P<system>[A-Z0-9]+)(?:[-_](?P<signal>[A-Za-z0-9_-]+?))?(?:\.(?P<trend>[a-z]+))?$`)

// Channel identifies a single data stream from a detector, optionally a
// trend statistic of one ("H1:SUS-ETMX_POS.mean,m-trend").
type Channel struct {
	// Name is the full channel name without the type suffix.
	Name string

	// IFO is the interferometer prefix, e.g. "H1".
	IFO string

	// System is the subsystem part of the name, e.g. "SUS".
	System string

	// Trend is the trend statistic ("mean", "min", "max", "rms") or
	// empty for a raw channel.
	Trend string

	// Type is the channel type: raw, s-trend, or m-trend.
	Type string

	// SampleRate in Hz. Zero means unknown.
	SampleRate float64

	// Unit is the physical unit, when known from configuration.
	Unit string

	// Bits names the individual bits of a state-vector channel, when
	// configured. Index in the slice is the bit number.
	Bits []string
}

// ParseChannel parses a channel name of the form
// "IFO:SYSTEM-SIGNAL[.trend][,type]".
//
// When the name carries a trend statistic but no explicit type, the type
// defaults by report mode: second trends for GPS-mode (short) reports,
// minute trends otherwise. This mirrors how trend data is stored: only
// minute trends are kept long-term.
func ParseChannel(name string, gpsMode bool) (*Channel, error) {
	name = strings.TrimSpace(name)
	base := name
	ctype := ""
	if i := strings.LastIndex(name, ","); i >= 0 {
		base, ctype = name[:i], name[i+1:]
	}

	m := channelPattern.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, name)
	}
	ch := &Channel{
		Name:   base,
		IFO:    m[channelPattern.SubexpIndex("ifo")],
		System: m[channelPattern.SubexpIndex("system")],
		Trend:  m[channelPattern.SubexpIndex("trend")],
		Type:   ctype,
	}

	if ch.Trend != "" && ch.Type == "" {
		if gpsMode {
			ch.Type = TrendTypeSecond
		} else {
			ch.Type = TrendTypeMinute
		}
	}
	if ch.Type == "" {
		ch.Type = TrendTypeRaw
	}

	switch ch.Type {
	case TrendTypeSecond:
		ch.SampleRate = SecondTrendRate
	case TrendTypeMinute:
		ch.SampleRate = MinuteTrendRate
	}

	return ch, nil
}

// String returns the full name including a non-raw type suffix, which is
// also the key used by the data stores.
func (c *Channel) String() string {
	if c.Type != "" && c.Type != TrendTypeRaw {
		return c.Name + "," + c.Type
	}
	return c.Name
}

// RawName returns the name of the underlying raw channel for a trend
// channel, or the channel's own name otherwise.
func (c *Channel) RawName() string {
	if c.Trend == "" {
		return c.Name
	}
	return strings.TrimSuffix(c.Name, "."+c.Trend)
}

// IsTrend reports whether the channel is a trend statistic.
func (c *Channel) IsTrend() bool {
	return c.Trend != ""
}

// SplitChannels splits a comma-or-whitespace separated channel list from
// configuration. Commas that separate a trend type from its channel
// ("X.mean,m-trend") bind tighter than list commas, so a bare type token
// is folded into the preceding name.
func SplitChannels(s string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	}) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == TrendTypeSecond || tok == TrendTypeMinute || tok == TrendTypeRaw {
			if n := len(out); n > 0 {
				out[n-1] += "," + tok
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}
