// Package db stores completed observations in sqlite. Spectra are persisted
// as JSON-serialised numeric arrays alongside the acquisition metadata, which
// is exactly the shape the historical-mode API serves back out.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Schema applied on startup. Migrations (migrate.go) cover the same table
// for deployments that manage versions explicitly.
const schema = `
	CREATE TABLE IF NOT EXISTS observation (
		id                    INTEGER PRIMARY KEY AUTOINCREMENT,
		telescope_id          TEXT NOT NULL,
		start_time            BIGINT NOT NULL,
		coordinate_system     TEXT NOT NULL,
		target_x              DOUBLE NOT NULL,
		target_y              DOUBLE NOT NULL,
		integration_time_secs DOUBLE NOT NULL,
		frequencies_json      TEXT NOT NULL,
		amplitudes_json       TEXT NOT NULL,
		vlsr_correction_mps   DOUBLE
	);
	CREATE INDEX IF NOT EXISTS idx_observation_start_time ON observation(start_time DESC);
`

// NewDB opens (creating if needed) the observation database.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db}, nil
}

// Observation is one stored spectrum with its acquisition metadata.
type Observation struct {
	ID                  int64
	TelescopeID         string
	StartTime           time.Time
	CoordinateSystem    string
	TargetX             float64
	TargetY             float64
	IntegrationTimeSecs float64
	Frequencies         []float64
	Amplitudes          []float64
	VLSRCorrectionMps   *float64
}

// InsertObservation stores a completed observation and returns its id.
func (db *DB) InsertObservation(obs Observation) (int64, error) {
	if len(obs.Frequencies) != len(obs.Amplitudes) {
		return 0, fmt.Errorf("refusing to store %d frequencies with %d amplitudes", len(obs.Frequencies), len(obs.Amplitudes))
	}

	frequenciesJSON, err := json.Marshal(obs.Frequencies)
	if err != nil {
		return 0, fmt.Errorf("failed to serialise frequencies: %w", err)
	}
	amplitudesJSON, err := json.Marshal(obs.Amplitudes)
	if err != nil {
		return 0, fmt.Errorf("failed to serialise amplitudes: %w", err)
	}

	var vlsr sql.NullFloat64
	if obs.VLSRCorrectionMps != nil {
		vlsr = sql.NullFloat64{Float64: *obs.VLSRCorrectionMps, Valid: true}
	}

	res, err := db.Exec(
		`INSERT INTO observation (
			telescope_id, start_time, coordinate_system, target_x, target_y,
			integration_time_secs, frequencies_json, amplitudes_json, vlsr_correction_mps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.TelescopeID, obs.StartTime.Unix(), obs.CoordinateSystem, obs.TargetX, obs.TargetY,
		obs.IntegrationTimeSecs, string(frequenciesJSON), string(amplitudesJSON), vlsr,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert observation: %w", err)
	}
	return res.LastInsertId()
}

const observationColumns = `id, telescope_id, start_time, coordinate_system, target_x, target_y,
	integration_time_secs, frequencies_json, amplitudes_json, vlsr_correction_mps`

func scanObservation(row interface{ Scan(...any) error }) (Observation, error) {
	var (
		obs             Observation
		startEpoch      int64
		frequenciesJSON string
		amplitudesJSON  string
		vlsr            sql.NullFloat64
	)
	if err := row.Scan(
		&obs.ID, &obs.TelescopeID, &startEpoch, &obs.CoordinateSystem, &obs.TargetX, &obs.TargetY,
		&obs.IntegrationTimeSecs, &frequenciesJSON, &amplitudesJSON, &vlsr,
	); err != nil {
		return Observation{}, err
	}
	obs.StartTime = time.Unix(startEpoch, 0).UTC()
	if err := json.Unmarshal([]byte(frequenciesJSON), &obs.Frequencies); err != nil {
		return Observation{}, fmt.Errorf("failed to parse stored frequencies: %w", err)
	}
	if err := json.Unmarshal([]byte(amplitudesJSON), &obs.Amplitudes); err != nil {
		return Observation{}, fmt.Errorf("failed to parse stored amplitudes: %w", err)
	}
	if vlsr.Valid {
		obs.VLSRCorrectionMps = &vlsr.Float64
	}
	return obs, nil
}

// ListObservations returns all observations, newest first.
func (db *DB) ListObservations() ([]Observation, error) {
	rows, err := db.Query(`SELECT ` + observationColumns + ` FROM observation ORDER BY start_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// GetObservation fetches one observation by id. Returns nil when absent.
func (db *DB) GetObservation(id int64) (*Observation, error) {
	row := db.QueryRow(`SELECT `+observationColumns+` FROM observation WHERE id = ?`, id)
	obs, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observation %d: %w", id, err)
	}
	return &obs, nil
}
