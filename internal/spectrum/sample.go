// Package spectrum implements the spectral data pipeline shared by the live
// and historical observation views: frame decoding, frequency/velocity unit
// conversion, axis scaling, chart rendering and the cursor readout.
package spectrum

import "errors"

var (
	// ErrMalformedFrame is returned when a binary or JSON payload does not
	// have the expected shape. The frame is rejected rather than rendered.
	ErrMalformedFrame = errors.New("malformed spectrum frame")

	// ErrInvalidUnitState is returned when a velocity conversion is requested
	// without a known VLSR correction.
	ErrInvalidUnitState = errors.New("velocity unit requires a VLSR correction")

	// ErrEmptySeries is returned when an extent is requested over no samples.
	ErrEmptySeries = errors.New("empty sample series")
)

// Sample is one decoded spectral measurement. Immutable once decoded.
type Sample struct {
	FrequencyHz float64
	Amplitude   float64
}

// Point is a sample converted to display coordinates for the current unit.
// Y is always the raw amplitude; only X depends on the display unit.
type Point struct {
	X float64
	Y float64
}
