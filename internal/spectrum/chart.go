package spectrum

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Pixels per axis tick; tick counts scale with the plot size.
const (
	xPixelsPerTick = 80.0
	yPixelsPerTick = 50.0
)

// ChartState holds everything one displayed chart needs: the current display
// unit, the VLSR correction when known, the latest complete frame and the two
// axis scales. There is exactly one ChartState per displayed chart. A new
// frame replaces the samples wholesale; a unit toggle mutates in place.
type ChartState struct {
	unit       DisplayUnit
	correction *float64
	samples    []Sample
	points     []Point
	xScale     AxisScale
	yScale     AxisScale
	width      float64
	height     float64
}

// NewChartState creates the state for a freshly mounted chart. The unit
// starts as velocity only if a correction is known, otherwise it is pinned
// to frequency.
func NewChartState(widthPx, heightPx float64, correctionMps *float64) *ChartState {
	return &ChartState{
		unit:       UnitFrequency,
		correction: correctionMps,
		width:      widthPx,
		height:     heightPx,
	}
}

// SetCorrection records the VLSR correction delivered by session metadata.
// A nil correction pins the unit back to frequency.
func (c *ChartState) SetCorrection(correctionMps *float64) {
	c.correction = correctionMps
	if correctionMps == nil && c.unit == UnitVelocity {
		c.unit = UnitFrequency
		c.recompute()
	}
}

// Unit returns the current display unit.
func (c *ChartState) Unit() DisplayUnit { return c.unit }

// Samples returns the latest complete frame.
func (c *ChartState) Samples() []Sample { return c.samples }

// Points returns the display points for the current unit.
func (c *ChartState) Points() []Point { return c.points }

// XScale returns the current X axis scale.
func (c *ChartState) XScale() AxisScale { return c.xScale }

// YScale returns the current Y axis scale.
func (c *ChartState) YScale() AxisScale { return c.yScale }

// Empty reports whether there is nothing to draw.
func (c *ChartState) Empty() bool { return len(c.samples) == 0 }

// SetFrame replaces the displayed samples with a new complete frame and
// recomputes both scales. Prior spectra are discarded, never merged.
func (c *ChartState) SetFrame(samples []Sample) {
	c.samples = samples
	c.recompute()
}

// CanToggle reports whether the velocity unit is selectable. The toggle
// control is simply not offered without a correction, so an invalid unit
// state is unreachable rather than merely rejected.
func (c *ChartState) CanToggle() bool { return c.correction != nil }

// ToggleLabel returns the text for the externally-owned toggle control.
func (c *ChartState) ToggleLabel() string {
	if c.unit == UnitFrequency {
		return "Show VLSR"
	}
	return "Show frequency"
}

// ToggleUnit flips the display unit, recomputes the display points and the X
// scale, and leaves the Y scale untouched since amplitude is unit-invariant.
// The transition is synchronous with no intermediate visible state.
func (c *ChartState) ToggleUnit() error {
	if c.correction == nil {
		return ErrInvalidUnitState
	}
	if c.unit == UnitFrequency {
		c.unit = UnitVelocity
	} else {
		c.unit = UnitFrequency
	}
	c.recomputePoints()
	if xs, err := NewXScale(c.points, c.width); err == nil {
		c.xScale = xs
	}
	return nil
}

func (c *ChartState) recompute() {
	c.recomputePoints()
	if len(c.samples) == 0 {
		c.xScale = AxisScale{}
		c.yScale = AxisScale{}
		return
	}
	if xs, err := NewXScale(c.points, c.width); err == nil {
		c.xScale = xs
	}
	if ys, err := NewYScale(c.samples, c.height); err == nil {
		c.yScale = ys
	}
}

func (c *ChartState) recomputePoints() {
	c.points = c.points[:0]
	for _, s := range c.samples {
		p, err := ToDisplay(s, c.unit, c.correction)
		if err != nil {
			// Unreachable by construction: the unit is never velocity
			// without a correction.
			continue
		}
		c.points = append(c.points, p)
	}
}

// RenderHTML draws the chart as a self-contained ECharts HTML document: one
// polyline through all display points in sequence order, axis bounds from the
// current scales and the X label matching the current unit. An empty frame
// renders no path and no axes.
func (c *ChartState) RenderHTML(w io.Writer, title string) error {
	line := charts.NewLine()

	globals := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%.0fpx", c.width),
			Height:    fmt.Sprintf("%.0fpx", c.height),
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	}
	if !c.Empty() {
		globals = append(globals,
			charts.WithXAxisOpts(opts.XAxis{
				Type:         "value",
				Name:         c.unit.AxisName(),
				NameLocation: "middle",
				NameGap:      30,
				Min:          c.xScale.Domain[0],
				Max:          c.xScale.Domain[1],
				SplitNumber:  tickCount(c.width, xPixelsPerTick),
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Type:         "value",
				Name:         "Amplitude",
				NameLocation: "middle",
				NameGap:      40,
				Min:          c.yScale.Domain[0],
				Max:          c.yScale.Domain[1],
				SplitNumber:  tickCount(c.height, yPixelsPerTick),
			}),
		)
	}
	line.SetGlobalOptions(globals...)

	if !c.Empty() {
		data := make([]opts.LineData, len(c.points))
		for i, p := range c.points {
			data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
		}
		line.AddSeries("spectrum", data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}

	return line.Render(w)
}

// RenderPNG draws the chart as a PNG using gonum/plot, for export and for
// the viewer CLI. The same scales and labels apply as in RenderHTML.
func (c *ChartState) RenderPNG(w io.Writer) error {
	p := plot.New()
	p.X.Label.Text = c.unit.AxisName()
	p.Y.Label.Text = "Amplitude"

	if !c.Empty() {
		p.X.Min, p.X.Max = c.xScale.Domain[0], c.xScale.Domain[1]
		p.Y.Min, p.Y.Max = c.yScale.Domain[0], c.yScale.Domain[1]

		xys := make(plotter.XYs, len(c.points))
		for i, pt := range c.points {
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build spectrum line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	wt, err := p.WriterTo(vg.Points(c.width), vg.Points(c.height), "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
