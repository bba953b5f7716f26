package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/salsa-telescope/salsa/internal/db"
	"github.com/salsa-telescope/salsa/internal/httputil"
	"github.com/salsa-telescope/salsa/internal/session"
)

// ObservationSummary is the list view: everything but the spectrum arrays.
type ObservationSummary struct {
	ID                  int64    `json:"id"`
	TelescopeID         string   `json:"telescope_id"`
	StartTime           string   `json:"start_time"`
	CoordinateSystem    string   `json:"coordinate_system"`
	TargetX             float64  `json:"target_x"`
	TargetY             float64  `json:"target_y"`
	IntegrationTimeSecs float64  `json:"integration_time_secs"`
	Channels            int      `json:"channels"`
	VLSRCorrectionMps   *float64 `json:"vlsr_correction_mps"`
}

func observationWire(obs db.Observation) session.Observation {
	return session.Observation{
		TelescopeID:         obs.TelescopeID,
		StartTime:           obs.StartTime.UTC().Format(time.RFC3339),
		CoordinateSystem:    obs.CoordinateSystem,
		TargetX:             obs.TargetX,
		TargetY:             obs.TargetY,
		IntegrationTimeSecs: obs.IntegrationTimeSecs,
		Frequencies:         obs.Frequencies,
		Amplitudes:          obs.Amplitudes,
		VLSRCorrectionMps:   obs.VLSRCorrectionMps,
	}
}

func (s *Server) listObservations(w http.ResponseWriter, r *http.Request) {
	observations, err := s.db.ListObservations()
	if err != nil {
		httputil.InternalServerError(w, "failed to list observations: "+err.Error())
		return
	}

	out := make([]ObservationSummary, 0, len(observations))
	for _, obs := range observations {
		out = append(out, ObservationSummary{
			ID:                  obs.ID,
			TelescopeID:         obs.TelescopeID,
			StartTime:           obs.StartTime.UTC().Format(time.RFC3339),
			CoordinateSystem:    obs.CoordinateSystem,
			TargetX:             obs.TargetX,
			TargetY:             obs.TargetY,
			IntegrationTimeSecs: obs.IntegrationTimeSecs,
			Channels:            len(obs.Frequencies),
			VLSRCorrectionMps:   obs.VLSRCorrectionMps,
		})
	}
	httputil.WriteJSONOK(w, out)
}

// storeObservation ingests an externally recorded observation.
func (s *Server) storeObservation(w http.ResponseWriter, r *http.Request) {
	var wire session.Observation
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		httputil.BadRequest(w, "invalid observation record: "+err.Error())
		return
	}

	startTime, err := time.Parse(time.RFC3339, wire.StartTime)
	if err != nil {
		httputil.BadRequest(w, "invalid start_time: "+err.Error())
		return
	}

	id, err := s.db.InsertObservation(db.Observation{
		TelescopeID:         wire.TelescopeID,
		StartTime:           startTime,
		CoordinateSystem:    wire.CoordinateSystem,
		TargetX:             wire.TargetX,
		TargetY:             wire.TargetY,
		IntegrationTimeSecs: wire.IntegrationTimeSecs,
		Frequencies:         wire.Frequencies,
		Amplitudes:          wire.Amplitudes,
		VLSRCorrectionMps:   wire.VLSRCorrectionMps,
	})
	if err != nil {
		httputil.BadRequest(w, "failed to store observation: "+err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// lookupObservation parses the {id} path value and loads the record.
func (s *Server) lookupObservation(w http.ResponseWriter, r *http.Request) (*db.Observation, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid observation id")
		return nil, false
	}
	obs, err := s.db.GetObservation(id)
	if err != nil {
		httputil.InternalServerError(w, "failed to fetch observation: "+err.Error())
		return nil, false
	}
	if obs == nil {
		httputil.NotFound(w, "no observation "+r.PathValue("id"))
		return nil, false
	}
	return obs, true
}

func (s *Server) showObservation(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.lookupObservation(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, observationWire(*obs))
}
