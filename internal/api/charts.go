package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/salsa-telescope/salsa/internal/db"
	"github.com/salsa-telescope/salsa/internal/httputil"
	"github.com/salsa-telescope/salsa/internal/spectrum"
)

// chartSize parses optional width/height query parameters in pixels.
func chartSize(r *http.Request) (width, height float64) {
	width, height = defaultChartWidth, defaultChartHeight
	if v := r.URL.Query().Get("width"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			width = parsed
		}
	}
	if v := r.URL.Query().Get("height"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			height = parsed
		}
	}
	return width, height
}

// applyUnit switches the chart to the requested display unit. Velocity is
// only available when the observation carries a VLSR correction.
func applyUnit(c *spectrum.ChartState, r *http.Request) error {
	switch unit := r.URL.Query().Get("unit"); unit {
	case "", "frequency":
		return nil
	case "velocity":
		if !c.CanToggle() {
			return fmt.Errorf("no VLSR correction known, cannot display velocity")
		}
		return c.ToggleUnit()
	default:
		return fmt.Errorf("unknown unit %q", unit)
	}
}

func observationChartState(obs *db.Observation, r *http.Request) (*spectrum.ChartState, error) {
	samples, err := spectrum.SamplesFromSeries(obs.Frequencies, obs.Amplitudes)
	if err != nil {
		return nil, fmt.Errorf("stored observation is inconsistent: %w", err)
	}
	width, height := chartSize(r)
	chart := spectrum.NewChartState(width, height, obs.VLSRCorrectionMps)
	chart.SetFrame(samples)
	if err := applyUnit(chart, r); err != nil {
		return nil, err
	}
	return chart, nil
}

func (s *Server) observationChart(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.lookupObservation(w, r)
	if !ok {
		return
	}
	chart, err := observationChartState(obs, r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	title := fmt.Sprintf("Observation %d (%s)", obs.ID, obs.TelescopeID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.RenderHTML(w, title); err != nil {
		httputil.InternalServerError(w, "failed to render chart: "+err.Error())
	}
}

func (s *Server) observationPlot(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.lookupObservation(w, r)
	if !ok {
		return
	}
	chart, err := observationChartState(obs, r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := chart.RenderPNG(w); err != nil {
		httputil.InternalServerError(w, "failed to render plot: "+err.Error())
	}
}

// observationReadout resolves a pointer position over the chart into the
// nearest data coordinates, formatted for display.
func (s *Server) observationReadout(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.lookupObservation(w, r)
	if !ok {
		return
	}
	chart, err := observationChartState(obs, r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	px, errX := strconv.ParseFloat(r.URL.Query().Get("px"), 64)
	py, errY := strconv.ParseFloat(r.URL.Query().Get("py"), 64)
	if errX != nil || errY != nil {
		httputil.BadRequest(w, "px and py query parameters are required")
		return
	}

	text, visible := chart.ReadoutAt(px, py)
	httputil.WriteJSONOK(w, map[string]any{
		"text":    text,
		"visible": visible,
	})
}

func (s *Server) telescopeChart(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}

	width, height := chartSize(r)
	chart := spectrum.NewChartState(width, height, scope.VLSRCorrectionMps())
	if spec := scope.CurrentSpectrum(); spec != nil {
		samples, err := spectrum.SamplesFromSeries(spec.Frequencies, spec.Amplitudes)
		if err != nil {
			httputil.InternalServerError(w, "receiver produced an inconsistent spectrum: "+err.Error())
			return
		}
		chart.SetFrame(samples)
	}
	if err := applyUnit(chart, r); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	title := fmt.Sprintf("Telescope %s live spectrum", scope.ID())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.RenderHTML(w, title); err != nil {
		httputil.InternalServerError(w, "failed to render chart: "+err.Error())
	}
}
