package spectrum

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func testFrame() []Sample {
	return []Sample{
		{FrequencyHz: 1419.4e6, Amplitude: 4.8},
		{FrequencyHz: 1420.4e6, Amplitude: 9.1},
		{FrequencyHz: 1421.4e6, Amplitude: 5.2},
	}
}

func TestSetFrameReplacesWholesale(t *testing.T) {
	c := NewChartState(800, 400, nil)
	c.SetFrame(testFrame())
	if len(c.Samples()) != 3 {
		t.Fatalf("samples = %d, want 3", len(c.Samples()))
	}

	c.SetFrame([]Sample{{FrequencyHz: 1420e6, Amplitude: 1}})
	if len(c.Samples()) != 1 {
		t.Fatalf("samples after replacement = %d, want 1 (frames must not accumulate)", len(c.Samples()))
	}

	c.SetFrame(nil)
	if !c.Empty() {
		t.Fatal("chart not empty after empty frame")
	}
}

func TestToggleUnitRequiresCorrection(t *testing.T) {
	c := NewChartState(800, 400, nil)
	c.SetFrame(testFrame())

	if c.CanToggle() {
		t.Fatal("CanToggle() = true without a correction")
	}
	if err := c.ToggleUnit(); !errors.Is(err, ErrInvalidUnitState) {
		t.Fatalf("ToggleUnit error = %v, want ErrInvalidUnitState", err)
	}
	if c.Unit() != UnitFrequency {
		t.Fatal("unit changed despite missing correction")
	}
}

func TestToggleUnitIdempotence(t *testing.T) {
	c := NewChartState(800, 400, ptr(8500))
	c.SetFrame(testFrame())

	beforeDomain := c.XScale().Domain
	beforeX := make([]float64, len(c.Points()))
	for i, p := range c.Points() {
		beforeX[i] = p.X
	}
	beforeY := c.YScale()

	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if c.Unit() != UnitVelocity {
		t.Fatalf("unit after toggle = %v, want velocity", c.Unit())
	}
	// Y scale is unit-invariant and must be untouched.
	if c.YScale() != beforeY {
		t.Errorf("Y scale changed on unit toggle: %+v != %+v", c.YScale(), beforeY)
	}
	// Velocity X domain differs from the frequency domain.
	if c.XScale().Domain == beforeDomain {
		t.Error("X domain unchanged after toggle")
	}

	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if c.Unit() != UnitFrequency {
		t.Fatalf("unit after double toggle = %v, want frequency", c.Unit())
	}
	if got := c.XScale().Domain; math.Abs(got[0]-beforeDomain[0]) > 1e-9 || math.Abs(got[1]-beforeDomain[1]) > 1e-9 {
		t.Errorf("X domain after double toggle = %v, want %v", got, beforeDomain)
	}
	for i, p := range c.Points() {
		if math.Abs(p.X-beforeX[i]) > 1e-9 {
			t.Errorf("point %d X after double toggle = %v, want %v", i, p.X, beforeX[i])
		}
	}
}

func TestToggleLabel(t *testing.T) {
	c := NewChartState(800, 400, ptr(0))
	if got := c.ToggleLabel(); got != "Show VLSR" {
		t.Errorf("ToggleLabel() = %q, want Show VLSR", got)
	}
	c.SetFrame(testFrame())
	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("ToggleUnit: %v", err)
	}
	if got := c.ToggleLabel(); got != "Show frequency" {
		t.Errorf("ToggleLabel() = %q, want Show frequency", got)
	}
}

func TestSetCorrectionPinsUnit(t *testing.T) {
	c := NewChartState(800, 400, ptr(100))
	c.SetFrame(testFrame())
	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("ToggleUnit: %v", err)
	}

	// Losing the correction pins the chart back to frequency.
	c.SetCorrection(nil)
	if c.Unit() != UnitFrequency {
		t.Fatal("unit not pinned to frequency after correction removed")
	}
	if c.CanToggle() {
		t.Fatal("CanToggle() = true after correction removed")
	}
}

func TestReadoutAt(t *testing.T) {
	c := NewChartState(800, 400, nil)
	c.SetFrame([]Sample{
		{FrequencyHz: 100e6, Amplitude: 0},
		{FrequencyHz: 102e6, Amplitude: 10},
	})

	// Mid-plot: X inverts to the middle of the 100-102 MHz domain.
	got, ok := c.ReadoutAt(400, 200)
	if !ok {
		t.Fatal("ReadoutAt mid-plot cleared the readout")
	}
	if !strings.HasPrefix(got, "X: 101.00 MHz, Y: ") {
		t.Errorf("readout = %q, want X: 101.00 MHz prefix", got)
	}

	// Outside the plot clears the readout.
	if _, ok := c.ReadoutAt(-5, 200); ok {
		t.Error("ReadoutAt left of plot did not clear")
	}
	if _, ok := c.ReadoutAt(400, 401); ok {
		t.Error("ReadoutAt below plot did not clear")
	}

	// No data clears the readout.
	c.SetFrame(nil)
	if _, ok := c.ReadoutAt(400, 200); ok {
		t.Error("ReadoutAt on empty chart did not clear")
	}
}

func TestReadoutAtVelocityLabel(t *testing.T) {
	c := NewChartState(800, 400, ptr(0))
	c.SetFrame(testFrame())
	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("ToggleUnit: %v", err)
	}
	got, ok := c.ReadoutAt(400, 200)
	if !ok {
		t.Fatal("ReadoutAt cleared in velocity mode")
	}
	if !strings.Contains(got, "km/s") {
		t.Errorf("readout = %q, want km/s label", got)
	}
}

func TestRenderHTML(t *testing.T) {
	c := NewChartState(800, 400, nil)
	c.SetFrame(testFrame())

	var buf bytes.Buffer
	if err := c.RenderHTML(&buf, "Spectrum"); err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Frequency (MHz)") {
		t.Error("rendered chart missing X axis name")
	}
	if !strings.Contains(out, "Amplitude") {
		t.Error("rendered chart missing Y axis name")
	}
}

func TestRenderHTMLEmpty(t *testing.T) {
	c := NewChartState(800, 400, nil)
	var buf bytes.Buffer
	// An empty series renders no path and no axes, and must not fail.
	if err := c.RenderHTML(&buf, "Spectrum"); err != nil {
		t.Fatalf("RenderHTML on empty chart returned error: %v", err)
	}
	if strings.Contains(buf.String(), "Frequency (MHz)") {
		t.Error("empty chart rendered axes")
	}
}

func TestRenderHTMLVelocityPipeline(t *testing.T) {
	// Full path from wire frame to rendered chart: decode, toggle to
	// velocity, render, read out.
	samples, err := DecodeBinaryFrame(EncodeBinaryFrame(testFrame()))
	if err != nil {
		t.Fatalf("DecodeBinaryFrame: %v", err)
	}

	c := NewChartState(800, 400, ptr(8500))
	c.SetFrame(samples)
	if err := c.ToggleUnit(); err != nil {
		t.Fatalf("ToggleUnit: %v", err)
	}

	var buf bytes.Buffer
	if err := c.RenderHTML(&buf, "Spectrum"); err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "Velocity (km/s)") {
		t.Error("rendered chart missing velocity X axis name")
	}

	got, ok := c.ReadoutAt(400, 200)
	if !ok {
		t.Fatal("ReadoutAt cleared mid-plot")
	}
	if !strings.Contains(got, "km/s") {
		t.Errorf("readout = %q, want km/s label", got)
	}
}

func TestRenderPNG(t *testing.T) {
	c := NewChartState(640, 360, nil)
	c.SetFrame(testFrame())

	var buf bytes.Buffer
	if err := c.RenderPNG(&buf); err != nil {
		t.Fatalf("RenderPNG returned error: %v", err)
	}
	// PNG magic header.
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("RenderPNG output is not a PNG")
	}
}
