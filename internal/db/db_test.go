package db

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetObservation(t *testing.T) {
	db := testDB(t)

	vlsr := -12345.6
	want := Observation{
		TelescopeID:         "vale",
		StartTime:           time.Unix(1700000000, 0).UTC(),
		CoordinateSystem:    "galactic",
		TargetX:             2.1,
		TargetY:             0.3,
		IntegrationTimeSecs: 25,
		Frequencies:         []float64{1.419e9, 1.420e9, 1.421e9},
		Amplitudes:          []float64{5.1, 9.7, 4.8},
		VLSRCorrectionMps:   &vlsr,
	}

	id, err := db.InsertObservation(want)
	if err != nil {
		t.Fatalf("InsertObservation: %v", err)
	}

	got, err := db.GetObservation(id)
	if err != nil {
		t.Fatalf("GetObservation: %v", err)
	}
	if got == nil {
		t.Fatal("GetObservation returned nil for a stored id")
	}
	if got.TelescopeID != want.TelescopeID || !got.StartTime.Equal(want.StartTime) {
		t.Errorf("metadata mismatch: got %+v", got)
	}
	if len(got.Frequencies) != 3 || got.Frequencies[1] != 1.420e9 {
		t.Errorf("frequencies = %v", got.Frequencies)
	}
	if len(got.Amplitudes) != 3 || got.Amplitudes[1] != 9.7 {
		t.Errorf("amplitudes = %v", got.Amplitudes)
	}
	if got.VLSRCorrectionMps == nil || *got.VLSRCorrectionMps != vlsr {
		t.Errorf("vlsr correction = %v, want %v", got.VLSRCorrectionMps, vlsr)
	}
}

func TestInsertObservationNullableCorrection(t *testing.T) {
	db := testDB(t)

	id, err := db.InsertObservation(Observation{
		TelescopeID:      "vale",
		StartTime:        time.Now(),
		CoordinateSystem: "horizontal",
		Frequencies:      []float64{1.42e9},
		Amplitudes:       []float64{5},
	})
	if err != nil {
		t.Fatalf("InsertObservation: %v", err)
	}

	got, err := db.GetObservation(id)
	if err != nil {
		t.Fatalf("GetObservation: %v", err)
	}
	if got.VLSRCorrectionMps != nil {
		t.Errorf("vlsr correction = %v, want nil", *got.VLSRCorrectionMps)
	}
}

func TestInsertObservationRejectsMismatchedArrays(t *testing.T) {
	db := testDB(t)

	_, err := db.InsertObservation(Observation{
		TelescopeID:      "vale",
		StartTime:        time.Now(),
		CoordinateSystem: "horizontal",
		Frequencies:      []float64{1, 2, 3},
		Amplitudes:       []float64{1, 2},
	})
	if err == nil {
		t.Fatal("expected error for mismatched array lengths")
	}
}

func TestListObservationsNewestFirst(t *testing.T) {
	db := testDB(t)

	for i, start := range []int64{1000, 3000, 2000} {
		_, err := db.InsertObservation(Observation{
			TelescopeID:      "vale",
			StartTime:        time.Unix(start, 0),
			CoordinateSystem: "horizontal",
			TargetX:          float64(i),
			Frequencies:      []float64{1.42e9},
			Amplitudes:       []float64{5},
		})
		if err != nil {
			t.Fatalf("InsertObservation: %v", err)
		}
	}

	obs, err := db.ListObservations()
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d observations, want 3", len(obs))
	}
	for i := 1; i < len(obs); i++ {
		if obs[i].StartTime.After(obs[i-1].StartTime) {
			t.Fatalf("observations out of order at %d: %v after %v", i, obs[i].StartTime, obs[i-1].StartTime)
		}
	}
}

func TestGetObservationMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetObservation(9999)
	if err != nil {
		t.Fatalf("GetObservation: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v for a missing id, want nil", got)
	}
}
