package spectrum

import "fmt"

// ReadoutAt converts a pointer position over the plot area into a cursor
// readout string via the inverse axis scales. The second return value is
// false when the pointer is outside the plot or there is no data, in which
// case the readout is cleared.
func (c *ChartState) ReadoutAt(px, py float64) (string, bool) {
	if c.Empty() {
		return "", false
	}
	if !c.xScale.Contains(px) || !c.yScale.Contains(py) {
		return "", false
	}
	x := c.xScale.Invert(px)
	y := c.yScale.Invert(py)
	return fmt.Sprintf("X: %.2f %s, Y: %.2f", x, c.unit.Label(), y), true
}
