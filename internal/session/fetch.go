package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/salsa-telescope/salsa/internal/spectrum"
)

// Observation is the historical-mode payload: one completed observation's
// full spectrum plus its acquisition metadata.
type Observation struct {
	TelescopeID         string    `json:"telescope_id"`
	StartTime           string    `json:"start_time"`
	CoordinateSystem    string    `json:"coordinate_system"`
	TargetX             float64   `json:"target_x"`
	TargetY             float64   `json:"target_y"`
	IntegrationTimeSecs float64   `json:"integration_time_secs"`
	Frequencies         []float64 `json:"frequencies"`
	Amplitudes          []float64 `json:"amplitudes"`
	VLSRCorrectionMps   *float64  `json:"vlsr_correction_mps"`
}

// FetchedSource loads one completed observation with a single request.
// A non-success response or a malformed record fails the session and leaves
// the chart untouched.
type FetchedSource struct {
	// URL is the observation endpoint, e.g. /api/observations/42.
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	state atomic.Int32
}

// State reports the fetch state.
func (f *FetchedSource) State() State { return State(f.state.Load()) }

// Run performs the fetch and delivers metadata and the full spectrum as one
// update, then returns.
func (f *FetchedSource) Run(ctx context.Context, deliver func(Update) error) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	f.state.Store(int32(StateFetching))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		f.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to build observation request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		f.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to fetch observation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.state.Store(int32(StateFailed))
		return fmt.Errorf("observation fetch returned status %d", resp.StatusCode)
	}

	var obs Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		f.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to parse observation record: %w", err)
	}

	samples, err := spectrum.SamplesFromSeries(obs.Frequencies, obs.Amplitudes)
	if err != nil {
		f.state.Store(int32(StateFailed))
		return fmt.Errorf("observation record is inconsistent: %w", err)
	}

	if err := deliver(Update{
		Metadata: &Metadata{VLSRCorrectionMps: obs.VLSRCorrectionMps},
		Samples:  samples,
	}); err != nil {
		return err
	}

	f.state.Store(int32(StateReady))
	return nil
}
