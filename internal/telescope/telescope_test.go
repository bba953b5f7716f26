package telescope

import (
	"context"
	"math"
	"testing"
	"time"
)

// Onsala-ish test location, matching the simulator defaults.
var testLocation = Location{Longitude: 0.20802143022, Latitude: 1.00170457462}

func TestSetTargetValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{"horizontal above limit", Target{CoordinateSystem: CoordHorizontal, X: 1, Y: math.Pi / 4}, false},
		{"horizontal below limit", Target{CoordinateSystem: CoordHorizontal, X: 1, Y: 0.01}, true},
		{"park", Target{CoordinateSystem: CoordParked}, false},
		{"unknown system", Target{CoordinateSystem: "ecliptic", X: 1, Y: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSimulator("test", testLocation)
			err := s.SetTarget(tt.target)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetTargetClearsIntegration(t *testing.T) {
	s := NewSimulator("test", testLocation)
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 0.5, Y: math.Pi / 3}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s.SetIntegrate(true)
	s.Step(UpdateInterval)
	if s.CurrentSpectrum() == nil {
		t.Fatal("no spectrum accumulated while integrating")
	}

	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 1.5, Y: math.Pi / 3}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if s.CurrentSpectrum() != nil {
		t.Fatal("spectrum survived a target change")
	}
	if s.Info().MeasurementInProgress {
		t.Fatal("integration still running after target change")
	}
}

func TestSpectrumShapeAndAveraging(t *testing.T) {
	s := NewSimulator("test", testLocation)
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 0, Y: math.Pi / 2}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s.SetIntegrate(true)
	for i := 0; i < 25; i++ {
		s.Step(UpdateInterval)
	}

	spec := s.CurrentSpectrum()
	if spec == nil {
		t.Fatal("no spectrum after integration")
	}
	if len(spec.Frequencies) != Channels || len(spec.Amplitudes) != Channels {
		t.Fatalf("spectrum has %d/%d channels, want %d", len(spec.Frequencies), len(spec.Amplitudes), Channels)
	}
	if spec.Frequencies[0] != FirstChannelHz {
		t.Errorf("first channel = %v, want %v", spec.Frequencies[0], FirstChannelHz)
	}
	if got := spec.Frequencies[1] - spec.Frequencies[0]; got != ChannelWidthHz {
		t.Errorf("channel width = %v, want %v", got, ChannelWidthHz)
	}
	if spec.IntegrationSecs != 25*UpdateInterval.Seconds() {
		t.Errorf("integration time = %v, want 25", spec.IntegrationSecs)
	}

	// Averaged noise should concentrate around the continuum level.
	var mean float64
	for _, a := range spec.Amplitudes {
		mean += a
	}
	mean /= float64(len(spec.Amplitudes))
	if math.Abs(mean-5.0) > 1.0 {
		t.Errorf("mean amplitude = %v, want near 5", mean)
	}
}

func TestSlewingTowardTarget(t *testing.T) {
	s := NewSimulator("test", testLocation)
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 2.0, Y: math.Pi / 4}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	if got := s.Info().Status; got != StatusSlewing {
		t.Fatalf("status right after target = %v, want slewing", got)
	}

	// At pi/10 rad/s the dish reaches any target within a minute.
	for i := 0; i < 60; i++ {
		s.Step(UpdateInterval)
	}
	info := s.Info()
	if info.Status != StatusTracking {
		t.Fatalf("status after slewing = %v, want tracking", info.Status)
	}
	if math.Abs(info.CurrentHorizontal.Azimuth-2.0) > 1e-6 {
		t.Errorf("azimuth = %v, want 2.0", info.CurrentHorizontal.Azimuth)
	}
}

func TestVLSRCorrectionByTargetKind(t *testing.T) {
	s := NewSimulator("test", testLocation)

	// Parked: no line-of-sight correction.
	if s.VLSRCorrectionMps() != nil {
		t.Error("parked telescope reported a VLSR correction")
	}

	// Horizontal pointing: no correction either.
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 1, Y: 1}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if s.VLSRCorrectionMps() != nil {
		t.Error("horizontal target reported a VLSR correction")
	}

	// Galactic target straight at the solar apex: the full solar speed.
	if err := s.SetTarget(Target{CoordinateSystem: CoordGalactic, X: solarApexLon, Y: solarApexLat}); err != nil {
		// The apex may be below the horizon at test time; point the
		// simulator somewhere it accepts and only test the projection.
		t.Skipf("apex below horizon at test time: %v", err)
	}
	c := s.VLSRCorrectionMps()
	if c == nil {
		t.Fatal("galactic target reported no VLSR correction")
	}
	if math.Abs(*c-solarSpeedMps) > 1e-6 {
		t.Errorf("correction toward apex = %v, want %v", *c, solarSpeedMps)
	}
}

func TestVLSRProjectionBounds(t *testing.T) {
	for l := 0.0; l < 2*math.Pi; l += 0.3 {
		for b := -math.Pi / 2; b <= math.Pi/2; b += 0.3 {
			v := vlsrCorrectionMps(l, b)
			if math.Abs(v) > solarSpeedMps+1e-9 {
				t.Fatalf("correction at l=%v b=%v is %v, beyond the solar speed", l, b, v)
			}
		}
	}
}

func TestGalacticEquatorialRoundTrip(t *testing.T) {
	for _, tc := range []struct{ l, b float64 }{
		{0, 0},
		{2.1, 0.4},
		{5.5, -0.9},
		{math.Pi, 1.2},
	} {
		ra, dec := equatorialFromGalactic(tc.l, tc.b)
		l, b := galacticFromEquatorial(ra, dec)
		if math.Abs(l-tc.l) > 1e-9 || math.Abs(b-tc.b) > 1e-9 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", tc.l, tc.b, l, b)
		}
	}
}

func TestSubscribePublishesFrames(t *testing.T) {
	s := NewSimulator("test", testLocation)
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 0, Y: math.Pi / 2}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s.SetIntegrate(true)

	id, frames := s.Subscribe()
	defer s.Unsubscribe(id)

	s.Step(UpdateInterval)

	select {
	case frame := <-frames:
		if len(frame) != Channels {
			t.Fatalf("frame has %d samples, want %d", len(frame), Channels)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame published")
	}
}

func TestMonitorStepsAtConfiguredInterval(t *testing.T) {
	s := NewSimulator("test", testLocation)
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 0, Y: math.Pi / 2}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s.SetIntegrate(true)

	id, frames := s.Subscribe()
	defer s.Unsubscribe(id)

	r := NewRegistry()
	r.Add(s)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- r.Monitor(ctx, 5*time.Millisecond) }()

	// A frame well before the default one-second interval proves the
	// configured interval drives the loop.
	select {
	case frame := <-frames:
		if len(frame) != Channels {
			t.Fatalf("frame has %d samples, want %d", len(frame), Channels)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("monitor published no frame at a 5ms interval")
	}

	cancel()
	select {
	case err := <-errs:
		if err != context.Canceled {
			t.Fatalf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestBelowHorizonStopsIntegration(t *testing.T) {
	s := NewSimulator("test", testLocation)
	// Command a just-legal elevation, then step with a target that has
	// drifted below the limit by pointing horizontally at the limit edge.
	if err := s.SetTarget(Target{CoordinateSystem: CoordHorizontal, X: 0, Y: MinElevationRad}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s.SetIntegrate(true)

	// Force the commanded elevation under the limit.
	s.mu.Lock()
	s.target.Y = MinElevationRad / 2
	s.mu.Unlock()

	s.Step(UpdateInterval)
	info := s.Info()
	if info.MeasurementInProgress {
		t.Fatal("integration kept running below the horizon")
	}
	if info.MostRecentError == "" {
		t.Fatal("no error recorded for a below-horizon target")
	}
}
