// Package telescope simulates a small radio telescope: a drive that slews
// toward a commanded target, a receiver that integrates noisy spectra around
// the hydrogen line, and a publisher that pushes each updated spectrum to
// subscribers (the live stream endpoint).
package telescope

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/salsa-telescope/salsa/internal/spectrum"
)

// Receiver geometry: 400 channels of 5 kHz centred on 1.420 GHz.
const (
	Channels       = 400
	ChannelWidthHz = 2e6 / Channels
	FirstChannelHz = 1.420e9 - ChannelWidthHz*Channels/2

	baseAmplitude  = 5.0
	noiseAmplitude = 2.0
)

// Drive limits.
const (
	UpdateInterval  = time.Second
	SlewRadPerSec   = math.Pi / 10
	MinElevationRad = 5.0 / 180 * math.Pi
)

// parkingDirection is where the dish rests with no target: straight up.
var parkingDirection = Direction{Azimuth: 0, Elevation: math.Pi / 2}

// ErrTargetBelowHorizon is returned when a commanded target is under the
// telescope's elevation limit.
var ErrTargetBelowHorizon = errors.New("target is below the horizon")

// Target kinds accepted by SetTarget.
const (
	CoordEquatorial = "equatorial"
	CoordGalactic   = "galactic"
	CoordHorizontal = "horizontal"
	CoordParked     = "parked"
)

// Target is a commanded pointing. X and Y are radians and their meaning
// depends on the coordinate system: (ra, dec), (l, b) or (az, el).
type Target struct {
	CoordinateSystem string
	X                float64
	Y                float64
}

// Status of the drive relative to the commanded target.
type Status int

const (
	StatusIdle Status = iota
	StatusSlewing
	StatusTracking
)

func (s Status) String() string {
	switch s {
	case StatusSlewing:
		return "slewing"
	case StatusTracking:
		return "tracking"
	default:
		return "idle"
	}
}

// Info is a snapshot of the simulator state for the API.
type Info struct {
	ID                    string
	Status                Status
	Target                Target
	CurrentHorizontal     Direction
	CommandedHorizontal   Direction
	MeasurementInProgress bool
	IntegrationSecs       float64
	MostRecentError       string
	VLSRCorrectionMps     *float64
}

// Simulator is a fake telescope. All state is behind one mutex; the update
// loop, the API handlers and the stream endpoint all go through it.
type Simulator struct {
	id       string
	location Location

	mu              sync.Mutex
	target          Target
	horizontal      Direction
	integrating     bool
	integrationSecs float64
	sumAmplitudes   []float64
	frequencies     []float64
	frameCount      int
	startTime       time.Time
	lastErr         string

	noise distuv.Normal

	subMu   sync.Mutex
	subs    map[int]chan []spectrum.Sample
	nextSub int
}

// NewSimulator creates a parked telescope at the given location.
func NewSimulator(id string, loc Location) *Simulator {
	return &Simulator{
		id:         id,
		location:   loc,
		target:     Target{CoordinateSystem: CoordParked},
		horizontal: parkingDirection,
		noise:      distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(uint64(time.Now().UnixNano()), 0)},
		subs:       make(map[int]chan []spectrum.Sample),
	}
}

// ID returns the telescope identifier.
func (s *Simulator) ID() string { return s.id }

// commandedHorizontal resolves the current target to a horizontal pointing.
func (s *Simulator) commandedHorizontal(when time.Time) Direction {
	switch s.target.CoordinateSystem {
	case CoordEquatorial:
		return horizontalFromEquatorial(s.location, when, s.target.X, s.target.Y)
	case CoordGalactic:
		return horizontalFromGalactic(s.location, when, s.target.X, s.target.Y)
	case CoordHorizontal:
		return Direction{Azimuth: s.target.X, Elevation: s.target.Y}
	default:
		return parkingDirection
	}
}

// SetTarget commands a new pointing. Setting a target clears any running
// integration and its accumulated spectra. Targets below the elevation limit
// are refused.
func (s *Simulator) SetTarget(t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t.CoordinateSystem {
	case CoordEquatorial, CoordGalactic, CoordHorizontal, CoordParked:
	default:
		return fmt.Errorf("unknown coordinate system %q", t.CoordinateSystem)
	}

	s.lastErr = ""
	s.integrating = false
	s.resetIntegrationLocked()

	old := s.target
	s.target = t
	if s.commandedHorizontal(time.Now()).Elevation < MinElevationRad {
		s.target = old
		return ErrTargetBelowHorizon
	}
	return nil
}

// VLSRCorrectionMps returns the correction for the current target, or nil
// when the target direction gives no line-of-sight correction (horizontal
// pointings and the park position).
func (s *Simulator) VLSRCorrectionMps() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vlsrLocked()
}

func (s *Simulator) vlsrLocked() *float64 {
	var l, b float64
	switch s.target.CoordinateSystem {
	case CoordGalactic:
		l, b = s.target.X, s.target.Y
	case CoordEquatorial:
		l, b = galacticFromEquatorial(s.target.X, s.target.Y)
	default:
		return nil
	}
	v := vlsrCorrectionMps(l, b)
	return &v
}

// SetIntegrate starts or stops the receiver. Starting records the
// observation start time; stopping freezes the accumulated spectrum until
// the next target change or start.
func (s *Simulator) SetIntegrate(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on && !s.integrating {
		s.resetIntegrationLocked()
		s.startTime = time.Now()
	}
	s.integrating = on
}

func (s *Simulator) resetIntegrationLocked() {
	s.sumAmplitudes = nil
	s.frequencies = nil
	s.frameCount = 0
	s.integrationSecs = 0
}

// Info returns a snapshot of the simulator.
func (s *Simulator) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	commanded := s.commandedHorizontal(now)
	offset := math.Hypot(commanded.Azimuth-s.horizontal.Azimuth, commanded.Elevation-s.horizontal.Elevation)

	status := StatusTracking
	if offset > 0.2*math.Pi/180 {
		status = StatusSlewing
	} else if s.target.CoordinateSystem == CoordParked {
		status = StatusIdle
	}

	return Info{
		ID:                    s.id,
		Status:                status,
		Target:                s.target,
		CurrentHorizontal:     s.horizontal,
		CommandedHorizontal:   commanded,
		MeasurementInProgress: s.integrating,
		IntegrationSecs:       s.integrationSecs,
		MostRecentError:       s.lastErr,
		VLSRCorrectionMps:     s.vlsrLocked(),
	}
}

// Spectrum is one accumulated observation.
type Spectrum struct {
	Frequencies     []float64
	Amplitudes      []float64
	StartTime       time.Time
	IntegrationSecs float64
}

// CurrentSpectrum returns the averaged spectrum accumulated so far, or nil
// if the receiver has produced nothing yet.
func (s *Simulator) CurrentSpectrum() *Spectrum {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSpectrumLocked()
}

func (s *Simulator) currentSpectrumLocked() *Spectrum {
	if s.frameCount == 0 {
		return nil
	}
	amplitudes := make([]float64, len(s.sumAmplitudes))
	for i, sum := range s.sumAmplitudes {
		amplitudes[i] = sum / float64(s.frameCount)
	}
	frequencies := make([]float64, len(s.frequencies))
	copy(frequencies, s.frequencies)
	return &Spectrum{
		Frequencies:     frequencies,
		Amplitudes:      amplitudes,
		StartTime:       s.startTime,
		IntegrationSecs: s.integrationSecs,
	}
}

// Subscribe registers a frame channel. Every receiver update pushes the
// latest averaged spectrum as samples; a slow subscriber skips frames rather
// than blocking the update loop.
func (s *Simulator) Subscribe() (int, <-chan []spectrum.Sample) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	c := make(chan []spectrum.Sample, 4)
	s.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscriber.
func (s *Simulator) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if c, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(c)
	}
}

func (s *Simulator) publish(samples []spectrum.Sample) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, c := range s.subs {
		select {
		case c <- samples:
		default:
		}
	}
}

// Step advances the simulation by dt: slews toward the commanded pointing
// and, when integrating above the horizon, accumulates one more noisy
// spectrum and publishes the running average.
func (s *Simulator) Step(dt time.Duration) {
	s.mu.Lock()

	now := time.Now()
	commanded := s.commandedHorizontal(now)
	if commanded.Elevation < MinElevationRad {
		s.lastErr = ErrTargetBelowHorizon.Error()
		s.integrating = false
	} else {
		maxDelta := SlewRadPerSec * dt.Seconds()
		s.horizontal.Azimuth += clamp(commanded.Azimuth-s.horizontal.Azimuth, -maxDelta, maxDelta)
		s.horizontal.Elevation += clamp(commanded.Elevation-s.horizontal.Elevation, -maxDelta, maxDelta)
	}

	var frame []spectrum.Sample
	if s.integrating {
		s.accumulateLocked(dt)
		if spec := s.currentSpectrumLocked(); spec != nil {
			frame = make([]spectrum.Sample, len(spec.Frequencies))
			for i := range spec.Frequencies {
				frame[i] = spectrum.Sample{FrequencyHz: spec.Frequencies[i], Amplitude: spec.Amplitudes[i]}
			}
		}
	}
	s.mu.Unlock()

	if frame != nil {
		s.publish(frame)
	}
}

// accumulateLocked adds one integration interval of synthetic receiver
// output: flat continuum plus Gaussian noise.
func (s *Simulator) accumulateLocked(dt time.Duration) {
	if s.frequencies == nil {
		s.frequencies = make([]float64, Channels)
		for i := range s.frequencies {
			s.frequencies[i] = FirstChannelHz + float64(i)*ChannelWidthHz
		}
		s.sumAmplitudes = make([]float64, Channels)
	}
	for i := range s.sumAmplitudes {
		s.sumAmplitudes[i] += baseAmplitude + noiseAmplitude*s.noise.Rand()
	}
	s.frameCount++
	s.integrationSecs += dt.Seconds()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
