package spectrum

// Physical constants for the frequency to velocity conversion.
const (
	// SpeedOfLight in m/s.
	SpeedOfLight = 299792458.0

	// RestFrequencyHz is the rest-frame frequency of the neutral hydrogen
	// 21 cm line, the spectral line observed by the telescope.
	RestFrequencyHz = 1420405751.0
)

// DisplayUnit selects the X coordinate of the rendered spectrum.
type DisplayUnit int

const (
	// UnitFrequency displays the X axis in MHz.
	UnitFrequency DisplayUnit = iota
	// UnitVelocity displays the X axis in km/s relative to the local
	// standard of rest. Only selectable when a VLSR correction is known.
	UnitVelocity
)

// Label returns the axis unit label for the display unit.
func (u DisplayUnit) Label() string {
	if u == UnitVelocity {
		return "km/s"
	}
	return "MHz"
}

// AxisName returns the X axis title for the display unit.
func (u DisplayUnit) AxisName() string {
	if u == UnitVelocity {
		return "Velocity (km/s)"
	}
	return "Frequency (MHz)"
}

// ToDisplay converts a sample to display coordinates for the given unit.
//
// Frequency mode maps Hz to MHz. Velocity mode applies the radio-astronomy
// Doppler convention relative to the hydrogen line rest frequency, offset by
// the supplied VLSR correction, expressed in km/s. Higher frequency maps to
// lower velocity: the mapping is order-reversing but strictly monotonic, so
// extent-based axis scaling stays correct without re-sorting.
func ToDisplay(s Sample, unit DisplayUnit, correctionMps *float64) (Point, error) {
	switch unit {
	case UnitVelocity:
		if correctionMps == nil {
			return Point{}, ErrInvalidUnitState
		}
		doppler := SpeedOfLight * (RestFrequencyHz - s.FrequencyHz) / RestFrequencyHz
		return Point{X: (doppler + *correctionMps) / 1000.0, Y: s.Amplitude}, nil
	default:
		return Point{X: s.FrequencyHz / 1e6, Y: s.Amplitude}, nil
	}
}
