// Package plot renders trigger, time-series, and segment figures with
// gonum/plot.
//
// All renderers accept a Params map built from --key=value command-line
// parameters or per-plot configuration options, so titles, axis limits,
// and geometry are config-driven without each caller growing its own
// option struct.
package plot

import (
	"image/color"

	"github.com/gwdetchar/gwsummary/internal/literal"
)

// Params carries free-form plot options parsed as restricted literals.
type Params map[string]any

// ParseParams builds a Params map from "key=value" argument strings.
// Arguments without an '=' are ignored.
func ParseParams(args []string) Params {
	p := make(Params, len(args))
	for _, arg := range args {
		if key, value, ok := literal.ParseParam(arg); ok {
			p[key] = value
		}
	}
	return p
}

// String returns a string option, or def when absent or differently
// typed.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Float returns a numeric option, accepting ints, or def.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Bool returns a boolean option, or def.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Range returns a two-element numeric option like "ylim=[0.1, 100]".
func (p Params) Range(key string) (lo, hi float64, ok bool) {
	list, isList := p[key].([]any)
	if !isList || len(list) != 2 {
		return 0, 0, false
	}
	toFloat := func(v any) (float64, bool) {
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		}
		return 0, false
	}
	if lo, ok = toFloat(list[0]); !ok {
		return 0, 0, false
	}
	if hi, ok = toFloat(list[1]); !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// snrColor maps a normalized SNR in [0, 1] onto a blue-to-red ramp.
func snrColor(norm float64) color.Color {
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return color.RGBA{
		R: uint8(255 * norm),
		G: 32,
		B: uint8(255 * (1 - norm)),
		A: 255,
	}
}
