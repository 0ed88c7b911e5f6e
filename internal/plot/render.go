package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Default figure geometry in inches.
const (
	defaultWidth  = 8.0
	defaultHeight = 4.5
)

// save writes the figure to path, sizing it from the "width" and
// "height" params (inches). The output format follows the file
// extension.
func save(p *plot.Plot, path string, params Params) error {
	w := vg.Length(params.Float("width", defaultWidth)) * vg.Inch
	h := vg.Length(params.Float("height", defaultHeight)) * vg.Inch
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// dimColor fades a color toward grey so highlighted rows stand out
// against it.
func dimColor(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	fade := func(v uint32) uint8 {
		return uint8((v>>8)/3 + 150)
	}
	return color.RGBA{R: fade(r), G: fade(g), B: fade(b), A: 255}
}
