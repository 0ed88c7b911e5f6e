package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

// seriesPalette cycles through line colors for multi-channel figures.
var seriesPalette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

// SeriesOptions configures a time-series figure.
type SeriesOptions struct {
	// Epoch is the GPS time plotted as X = 0. Zero means the span
	// start.
	Epoch float64

	// Params carries free-form display options (title, ylabel, ylim,
	// logy, width, height).
	Params Params
}

// SaveSeriesPlot renders one line per stored series segment and writes
// the figure to path. Series sharing a channel share a color and a
// single legend entry, so a channel split across gaps still reads as
// one trace.
func SaveSeriesPlot(path string, series []*model.TimeSeries, span gpstime.Span, opts SeriesOptions) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot for %s", span)
	}

	p := plot.New()
	epoch := opts.Epoch
	if epoch == 0 {
		epoch = span.Start
	}

	p.Title.Text = opts.Params.String("title", span.String())
	p.X.Label.Text = opts.Params.String("xlabel",
		fmt.Sprintf("Time (s) from GPS %d", int64(epoch)))
	p.Y.Label.Text = opts.Params.String("ylabel", seriesUnit(series))

	if opts.Params.Bool("logy", false) {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if lo, hi, ok := opts.Params.Range("ylim"); ok {
		p.Y.Min, p.Y.Max = lo, hi
	}
	p.X.Min, p.X.Max = 0, span.Duration()

	colors := make(map[string]color.Color)
	for _, ts := range series {
		c, seen := colors[ts.Channel]
		if !seen {
			c = seriesPalette[len(colors)%len(seriesPalette)]
			colors[ts.Channel] = c
		}

		xys := make(plotter.XYs, len(ts.Samples))
		for i, v := range ts.Samples {
			xys[i] = plotter.XY{X: ts.TimeAt(i) - epoch, Y: v}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("build line for %s: %w", ts.Channel, err)
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
		if !seen {
			p.Legend.Add(ts.Channel, line)
		}
	}
	p.Legend.Top = true

	return save(p, path, opts.Params)
}

// seriesUnit returns the shared unit of the series, or "Amplitude" when
// units are absent or mixed.
func seriesUnit(series []*model.TimeSeries) string {
	unit := series[0].Unit
	for _, ts := range series[1:] {
		if ts.Unit != unit {
			return "Amplitude"
		}
	}
	if unit == "" {
		return "Amplitude"
	}
	return unit
}
