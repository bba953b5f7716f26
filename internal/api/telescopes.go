package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/salsa-telescope/salsa/internal/db"
	"github.com/salsa-telescope/salsa/internal/httputil"
	"github.com/salsa-telescope/salsa/internal/telescope"
)

// TelescopeAPI is the wire view of a telescope. Angles are degrees; the
// simulator works in radians internally.
type TelescopeAPI struct {
	ID                    string   `json:"id"`
	Status                string   `json:"status"`
	CoordinateSystem      string   `json:"coordinate_system"`
	TargetX               float64  `json:"target_x"`
	TargetY               float64  `json:"target_y"`
	AzimuthDegrees        float64  `json:"azimuth_degrees"`
	ElevationDegrees      float64  `json:"elevation_degrees"`
	MeasurementInProgress bool     `json:"measurement_in_progress"`
	IntegrationTimeSecs   float64  `json:"integration_time_secs"`
	MostRecentError       string   `json:"most_recent_error,omitempty"`
	VLSRCorrectionMps     *float64 `json:"vlsr_correction_mps"`
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func telescopeAPI(info telescope.Info) TelescopeAPI {
	return TelescopeAPI{
		ID:                    info.ID,
		Status:                info.Status.String(),
		CoordinateSystem:      info.Target.CoordinateSystem,
		TargetX:               degrees(info.Target.X),
		TargetY:               degrees(info.Target.Y),
		AzimuthDegrees:        degrees(info.CurrentHorizontal.Azimuth),
		ElevationDegrees:      degrees(info.CurrentHorizontal.Elevation),
		MeasurementInProgress: info.MeasurementInProgress,
		IntegrationTimeSecs:   info.IntegrationSecs,
		MostRecentError:       info.MostRecentError,
		VLSRCorrectionMps:     info.VLSRCorrectionMps,
	}
}

func (s *Server) lookupTelescope(w http.ResponseWriter, r *http.Request) (*telescope.Simulator, bool) {
	id := r.PathValue("id")
	scope, ok := s.scopes.Get(id)
	if !ok {
		httputil.NotFound(w, "unknown telescope "+id)
		return nil, false
	}
	return scope, true
}

func (s *Server) listTelescopes(w http.ResponseWriter, r *http.Request) {
	scopes := s.scopes.List()
	out := make([]TelescopeAPI, 0, len(scopes))
	for _, scope := range scopes {
		out = append(out, telescopeAPI(scope.Info()))
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showTelescope(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, telescopeAPI(scope.Info()))
}

// TargetRequest commands a new pointing. X and Y are degrees and mean
// (ra, dec), (l, b) or (az, el) depending on the coordinate system.
type TargetRequest struct {
	CoordinateSystem string  `json:"coordinate_system"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
}

func (s *Server) setTarget(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}

	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid target request: "+err.Error())
		return
	}

	err := scope.SetTarget(telescope.Target{
		CoordinateSystem: req.CoordinateSystem,
		X:                radians(req.X),
		Y:                radians(req.Y),
	})
	if err != nil {
		// Covers both unknown coordinate systems and below-horizon targets.
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, telescopeAPI(scope.Info()))
}

func (s *Server) startObservation(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}
	scope.SetIntegrate(true)
	httputil.WriteJSONOK(w, telescopeAPI(scope.Info()))
}

// stopObservation stops the receiver and stores the accumulated spectrum.
// Stopping with nothing accumulated is an error rather than an empty record.
func (s *Server) stopObservation(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.lookupTelescope(w, r)
	if !ok {
		return
	}
	scope.SetIntegrate(false)

	spec := scope.CurrentSpectrum()
	if spec == nil {
		httputil.BadRequest(w, "no spectrum accumulated")
		return
	}

	info := scope.Info()
	id, err := s.db.InsertObservation(db.Observation{
		TelescopeID:         scope.ID(),
		StartTime:           spec.StartTime,
		CoordinateSystem:    info.Target.CoordinateSystem,
		TargetX:             info.Target.X,
		TargetY:             info.Target.Y,
		IntegrationTimeSecs: spec.IntegrationSecs,
		Frequencies:         spec.Frequencies,
		Amplitudes:          spec.Amplitudes,
		VLSRCorrectionMps:   info.VLSRCorrectionMps,
	})
	if err != nil {
		httputil.InternalServerError(w, "failed to store observation: "+err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
