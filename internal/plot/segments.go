package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
)

var (
	knownColor  = color.RGBA{R: 218, G: 218, B: 218, A: 255}
	activeColor = color.RGBA{R: 51, G: 136, B: 51, A: 255}
)

// SegmentOptions configures a segment-bar figure.
type SegmentOptions struct {
	// Epoch is the GPS time plotted as X = 0. Zero means the span
	// start.
	Epoch float64

	// Params carries free-form display options (title, width, height).
	Params Params
}

// SaveSegmentPlot renders one horizontal bar row per flag and writes
// the figure to path. Known time is drawn grey under the green active
// segments, so gaps in knowledge and inactive time read differently.
// Rows keep the order of flags, top to bottom.
func SaveSegmentPlot(path string, flags []*model.DataQualityFlag, span gpstime.Span, opts SegmentOptions) error {
	if len(flags) == 0 {
		return fmt.Errorf("no flags to plot for %s", span)
	}

	p := plot.New()
	epoch := opts.Epoch
	if epoch == 0 {
		epoch = span.Start
	}

	p.Title.Text = opts.Params.String("title", span.String())
	p.X.Label.Text = opts.Params.String("xlabel",
		fmt.Sprintf("Time (s) from GPS %d", int64(epoch)))

	names := make([]string, len(flags))
	for i, flag := range flags {
		// Row 0 is the bottom; keep the first flag on top.
		y := float64(len(flags) - 1 - i)
		names[len(flags)-1-i] = flag.Name
		if err := addBars(p, flag.Known, epoch, y, 0.8, knownColor); err != nil {
			return err
		}
		if err := addBars(p, flag.Active, epoch, y, 0.6, activeColor); err != nil {
			return err
		}
	}

	p.Y.Tick.Marker = flagTicks(names)
	p.Y.Min, p.Y.Max = -0.5, float64(len(flags))-0.5
	p.X.Min, p.X.Max = 0, span.Duration()

	return save(p, path, opts.Params)
}

// addBars draws one segment list as filled rectangles centered on row y.
func addBars(p *plot.Plot, segs model.SegmentList, epoch, y, height float64, fill color.Color) error {
	for _, seg := range segs {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: seg.Start - epoch, Y: y - height/2},
			{X: seg.End - epoch, Y: y - height/2},
			{X: seg.End - epoch, Y: y + height/2},
			{X: seg.Start - epoch, Y: y + height/2},
		})
		if err != nil {
			return fmt.Errorf("build segment bar: %w", err)
		}
		poly.Color = fill
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	return nil
}

// flagTicks labels integer rows with flag names, bottom to top.
type flagTicks []string

func (t flagTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(t))
	for i, name := range t {
		y := float64(i)
		if y < min || y > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: y, Label: name})
	}
	return ticks
}
