package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Extent returns the [min, max] range of a numeric series. The result is
// order-independent, so it stays correct for the order-reversing velocity
// mapping. An empty series yields ErrEmptySeries; callers render nothing
// rather than propagating it.
func Extent(values []float64) (min, max float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptySeries
	}
	return floats.Min(values), floats.Max(values), nil
}

// AxisScale is a bidirectional linear map between a data domain and a pixel
// range. Forward and Invert are exact mathematical inverses.
type AxisScale struct {
	Domain [2]float64
	Range  [2]float64
}

// Forward maps a domain value to a pixel position.
func (s AxisScale) Forward(v float64) float64 {
	d := s.Domain[1] - s.Domain[0]
	if d == 0 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	return s.Range[0] + (v-s.Domain[0])*(s.Range[1]-s.Range[0])/d
}

// Invert maps a pixel position back to a domain value. Used only for the
// pointer readout.
func (s AxisScale) Invert(px float64) float64 {
	r := s.Range[1] - s.Range[0]
	if r == 0 {
		return (s.Domain[0] + s.Domain[1]) / 2
	}
	return s.Domain[0] + (px-s.Range[0])*(s.Domain[1]-s.Domain[0])/r
}

// Contains reports whether a pixel position falls inside the pixel range.
func (s AxisScale) Contains(px float64) bool {
	lo, hi := s.Range[0], s.Range[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return px >= lo && px <= hi
}

// niceStep returns a clean tick step (1, 2 or 5 times a power of ten) close
// to the requested raw step.
func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// PadExtent expands an extent by the given fraction of its span on both ends
// and rounds the bounds outward to tick-aligned values, so amplitude extrema
// are not drawn flush against the plot border. A zero-span extent is widened
// around its value first so the result is always a usable domain.
func PadExtent(min, max, fraction float64) (float64, float64) {
	span := max - min
	if span == 0 {
		half := math.Abs(min) * fraction
		if half == 0 {
			half = 1
		}
		min, max = min-half, max+half
		span = max - min
	}
	pad := span * fraction
	min -= pad
	max += pad

	step := niceStep((max - min) / 10)
	return math.Floor(min/step) * step, math.Ceil(max/step) * step
}

// NewXScale builds the X axis scale from display points. The domain is the
// raw extent with no padding: unit toggles intentionally snap to the new
// unit's true range. Pixel range runs left to right.
func NewXScale(points []Point, widthPx float64) (AxisScale, error) {
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	min, max, err := Extent(xs)
	if err != nil {
		return AxisScale{}, err
	}
	return AxisScale{Domain: [2]float64{min, max}, Range: [2]float64{0, widthPx}}, nil
}

// NewYScale builds the Y axis scale from sample amplitudes, padded by 5% on
// both ends before nice rounding. Pixel range runs top-down, origin at the
// top left as in screen coordinates.
func NewYScale(samples []Sample, heightPx float64) (AxisScale, error) {
	ys := make([]float64, len(samples))
	for i, s := range samples {
		ys[i] = s.Amplitude
	}
	min, max, err := Extent(ys)
	if err != nil {
		return AxisScale{}, err
	}
	min, max = PadExtent(min, max, 0.05)
	return AxisScale{Domain: [2]float64{min, max}, Range: [2]float64{heightPx, 0}}, nil
}

// tickCount returns an axis tick count proportional to the pixel extent.
func tickCount(pixels float64, perTick float64) int {
	n := int(pixels / perTick)
	if n < 2 {
		n = 2
	}
	return n
}
