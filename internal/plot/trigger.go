package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

// TriggerOptions configures a trigger figure.
type TriggerOptions struct {
	// Channel names the source channel, used in the default title.
	Channel string

	// ETG names the event-trigger generator, used in the default title.
	ETG string

	// Epoch is the GPS time plotted as X = 0. Zero means the span
	// start.
	Epoch float64

	// Column selects the Y column; default "frequency".
	Column string

	// ColorColumn selects the column mapped to color; default "snr".
	ColorColumn string

	// Tiles draws duration-by-bandwidth rectangles instead of points.
	Tiles bool

	// Params carries free-form display options (title, ylim, logy,
	// width, height).
	Params Params
}

// SaveTriggerPlot renders trigger rows over the span and writes the
// figure to path. The format follows the file extension (png, svg,
// pdf). The highlight rows, when non-empty, are drawn on top of the
// base rows with full color while the base is dimmed, which is how a
// filtered subset is emphasized without dropping context.
func SaveTriggerPlot(path string, rows, highlight []model.Trigger, span gpstime.Span, opts TriggerOptions) error {
	p := plot.New()

	epoch := opts.Epoch
	if epoch == 0 {
		epoch = span.Start
	}
	column := opts.Column
	if column == "" {
		column = "frequency"
	}
	colorCol := opts.ColorColumn
	if colorCol == "" {
		colorCol = "snr"
	}

	p.Title.Text = opts.Params.String("title",
		fmt.Sprintf("%s (%s): %s", opts.Channel, opts.ETG, span))
	p.X.Label.Text = opts.Params.String("xlabel",
		fmt.Sprintf("Time (s) from GPS %d", int64(epoch)))
	p.Y.Label.Text = opts.Params.String("ylabel", axisLabel(column))

	if opts.Params.Bool("logy", false) {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if lo, hi, ok := opts.Params.Range("ylim"); ok {
		p.Y.Min, p.Y.Max = lo, hi
	}
	p.X.Min, p.X.Max = 0, span.Duration()

	lo, hi := columnRange(rows, highlight, colorCol)
	dim := len(highlight) > 0

	if opts.Tiles {
		if err := addTiles(p, rows, epoch, column, colorCol, lo, hi, dim); err != nil {
			return err
		}
		if err := addTiles(p, highlight, epoch, column, colorCol, lo, hi, false); err != nil {
			return err
		}
	} else {
		if err := addScatter(p, rows, epoch, column, colorCol, lo, hi, dim); err != nil {
			return err
		}
		if err := addScatter(p, highlight, epoch, column, colorCol, lo, hi, false); err != nil {
			return err
		}
	}

	return save(p, path, opts.Params)
}

// axisLabel maps a column name to an axis label with units where the
// column is a standard one.
func axisLabel(column string) string {
	switch column {
	case "frequency", "bandwidth":
		return "Frequency (Hz)"
	case "time", "duration":
		return "Time (s)"
	case "snr":
		return "Signal-to-noise ratio"
	}
	return column
}

// columnRange finds the color-column range across both row sets.
func columnRange(rows, highlight []model.Trigger, column string) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, set := range [][]model.Trigger{rows, highlight} {
		for _, row := range set {
			v, ok := row.Column(column)
			if !ok {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if lo > hi {
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// norm maps v into [0, 1] over [lo, hi].
func norm(v, lo, hi float64) float64 {
	return (v - lo) / (hi - lo)
}

// addScatter draws one row set as colored points.
func addScatter(p *plot.Plot, rows []model.Trigger, epoch float64, column, colorCol string, lo, hi float64, dim bool) error {
	if len(rows) == 0 {
		return nil
	}
	xyz := make(plotter.XYZs, 0, len(rows))
	for _, row := range rows {
		y, ok := row.Column(column)
		if !ok {
			continue
		}
		c, _ := row.Column(colorCol)
		xyz = append(xyz, plotter.XYZ{X: row.Time - epoch, Y: y, Z: c})
	}
	sc, err := plotter.NewScatter(xyz)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		style := draw.GlyphStyle{
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
			Color:  snrColor(norm(xyz[i].Z, lo, hi)),
		}
		if dim {
			style.Radius = vg.Points(1.5)
			style.Color = dimColor(style.Color)
		}
		return style
	}
	p.Add(sc)
	return nil
}

// addTiles draws one row set as duration-by-bandwidth rectangles. Rows
// without duration or bandwidth get minimal visible tiles.
func addTiles(p *plot.Plot, rows []model.Trigger, epoch float64, column, colorCol string, lo, hi float64, dim bool) error {
	for _, row := range rows {
		y, ok := row.Column(column)
		if !ok {
			continue
		}
		w := row.Duration
		if w <= 0 {
			w = 0.1
		}
		h := row.Bandwidth
		if h <= 0 {
			h = y * 0.05
		}
		x := row.Time - epoch
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: x - w/2, Y: y - h/2},
			{X: x + w/2, Y: y - h/2},
			{X: x + w/2, Y: y + h/2},
			{X: x - w/2, Y: y + h/2},
		})
		if err != nil {
			return fmt.Errorf("build tile: %w", err)
		}
		c, _ := row.Column(colorCol)
		fill := snrColor(norm(c, lo, hi))
		if dim {
			fill = dimColor(fill)
		}
		poly.Color = fill
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	return nil
}
