package telescope

import (
	"math"
	"time"
)

// Direction is a horizontal pointing in radians.
type Direction struct {
	Azimuth   float64
	Elevation float64
}

// Location is an observer position on Earth in radians.
type Location struct {
	Longitude float64
	Latitude  float64
}

// j2000 is the epoch used for sidereal time computation.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// greenwichMeanSiderealTime returns GMST in radians for the given instant,
// using the usual linear approximation (more than accurate enough for a
// simulated drive loop).
func greenwichMeanSiderealTime(when time.Time) float64 {
	days := when.Sub(j2000).Hours() / 24
	gmstHours := 18.697374558 + 24.06570982441908*days
	gmstHours = math.Mod(gmstHours, 24)
	if gmstHours < 0 {
		gmstHours += 24
	}
	return gmstHours / 24 * 2 * math.Pi
}

// horizontalFromEquatorial converts right ascension and declination
// (radians) to the horizontal frame at the given location and time.
func horizontalFromEquatorial(loc Location, when time.Time, ra, dec float64) Direction {
	lst := greenwichMeanSiderealTime(when) + loc.Longitude
	hourAngle := lst - ra

	sinEl := math.Sin(dec)*math.Sin(loc.Latitude) + math.Cos(dec)*math.Cos(loc.Latitude)*math.Cos(hourAngle)
	el := math.Asin(sinEl)

	az := math.Atan2(
		-math.Sin(hourAngle)*math.Cos(dec),
		math.Sin(dec)*math.Cos(loc.Latitude)-math.Cos(dec)*math.Sin(loc.Latitude)*math.Cos(hourAngle),
	)
	if az < 0 {
		az += 2 * math.Pi
	}
	return Direction{Azimuth: az, Elevation: el}
}

// North galactic pole and ascending node constants (J2000).
const (
	galacticPoleRA  = 192.85948 * math.Pi / 180
	galacticPoleDec = 27.12825 * math.Pi / 180
	galacticLonNode = 122.93192 * math.Pi / 180
)

// equatorialFromGalactic converts galactic longitude and latitude (radians)
// to J2000 right ascension and declination.
func equatorialFromGalactic(l, b float64) (ra, dec float64) {
	sinDec := math.Sin(b)*math.Sin(galacticPoleDec) + math.Cos(b)*math.Cos(galacticPoleDec)*math.Cos(galacticLonNode-l)
	dec = math.Asin(sinDec)

	y := math.Cos(b) * math.Sin(galacticLonNode-l)
	x := math.Sin(b)*math.Cos(galacticPoleDec) - math.Cos(b)*math.Sin(galacticPoleDec)*math.Cos(galacticLonNode-l)
	ra = galacticPoleRA + math.Atan2(y, x)
	ra = math.Mod(ra, 2*math.Pi)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	return ra, dec
}

// galacticFromEquatorial is the inverse of equatorialFromGalactic.
func galacticFromEquatorial(ra, dec float64) (l, b float64) {
	sinB := math.Sin(dec)*math.Sin(galacticPoleDec) + math.Cos(dec)*math.Cos(galacticPoleDec)*math.Cos(ra-galacticPoleRA)
	b = math.Asin(sinB)

	y := math.Cos(dec) * math.Sin(ra-galacticPoleRA)
	x := math.Sin(dec)*math.Cos(galacticPoleDec) - math.Cos(dec)*math.Sin(galacticPoleDec)*math.Cos(ra-galacticPoleRA)
	l = galacticLonNode - math.Atan2(y, x)
	l = math.Mod(l, 2*math.Pi)
	if l < 0 {
		l += 2 * math.Pi
	}
	return l, b
}

// horizontalFromGalactic converts galactic coordinates to the horizontal
// frame at the given location and time.
func horizontalFromGalactic(loc Location, when time.Time, l, b float64) Direction {
	ra, dec := equatorialFromGalactic(l, b)
	return horizontalFromEquatorial(loc, when, ra, dec)
}

// Solar apex in galactic coordinates and the standard solar speed used for
// the simulated VLSR correction.
const (
	solarApexLon  = 56.16 * math.Pi / 180
	solarApexLat  = 22.77 * math.Pi / 180
	solarSpeedMps = 20000.0
)

// vlsrCorrectionMps returns the projection of the solar motion onto the
// target direction, the dominant term of the VLSR correction. It ignores the
// Earth's orbital and rotational components, which is accurate enough for a
// simulator feeding the display pipeline.
func vlsrCorrectionMps(l, b float64) float64 {
	cosAngle := math.Cos(b)*math.Cos(solarApexLat)*math.Cos(l-solarApexLon) + math.Sin(b)*math.Sin(solarApexLat)
	return solarSpeedMps * cosAngle
}
