package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestStartStopLifecycle(t *testing.T) {
	agg := NewAggregator(40)

	session, err := agg.Start(time.Now())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected session id")
	}

	if _, err := agg.Start(time.Now()); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	done, err := agg.Stop(time.Now())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if done.EndedAt.IsZero() {
		t.Fatalf("expected frozen session to carry end time")
	}
}

func TestStopIdleFails(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Stop(time.Now()); !errors.Is(err, ErrSessionIdle) {
		t.Fatalf("expected ErrSessionIdle, got %v", err)
	}
}

func TestIngestIdleFails(t *testing.T) {
	agg := NewAggregator(40)
	if err := agg.Ingest(LocationSample{Latitude: 35, Longitude: 139}); !errors.Is(err, ErrSessionIdle) {
		t.Fatalf("expected ErrSessionIdle, got %v", err)
	}
}

func TestTickIdleFails(t *testing.T) {
	agg := NewAggregator(40)
	if err := agg.Tick(); !errors.Is(err, ErrSessionIdle) {
		t.Fatalf("expected ErrSessionIdle, got %v", err)
	}
}

func TestIngestAccumulatesDistanceAndCalories(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// ~111m apart along a meridian.
	samples := []LocationSample{
		{Latitude: 35.000, Longitude: 139.0, SpeedMps: 5},
		{Latitude: 35.001, Longitude: 139.0, SpeedMps: 6},
		{Latitude: 35.002, Longitude: 139.0, SpeedMps: 4},
	}
	for _, s := range samples {
		if err := agg.Ingest(s); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, active := agg.Snapshot()
	if !active {
		t.Fatalf("expected active session")
	}
	if snap.DistanceKm < 0.2 || snap.DistanceKm > 0.25 {
		t.Fatalf("unexpected distance: %v", snap.DistanceKm)
	}
	if math.Abs(snap.Calories-snap.DistanceKm*40) > 1e-9 {
		t.Fatalf("unexpected calories: %v", snap.Calories)
	}
	if len(snap.Route) != 3 {
		t.Fatalf("unexpected route length: %d", len(snap.Route))
	}
}

func TestElevationGainOnlyIncreases(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}

	samples := []LocationSample{
		{Latitude: 35.000, Longitude: 139.0, AltitudeM: ptr(10)},
		{Latitude: 35.001, Longitude: 139.0, AltitudeM: ptr(15)},
		{Latitude: 35.002, Longitude: 139.0, AltitudeM: ptr(12)},
	}
	for _, s := range samples {
		if err := agg.Ingest(s); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, _ := agg.Snapshot()
	if snap.ElevationGainM != 5 {
		t.Fatalf("expected elevation gain 5, got %v", snap.ElevationGainM)
	}
}

func TestElevationGainSkipsMissingAltitude(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}

	samples := []LocationSample{
		{Latitude: 35.000, Longitude: 139.0, AltitudeM: ptr(10)},
		{Latitude: 35.001, Longitude: 139.0},
		{Latitude: 35.002, Longitude: 139.0, AltitudeM: ptr(13)},
	}
	for _, s := range samples {
		if err := agg.Ingest(s); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, _ := agg.Snapshot()
	if snap.ElevationGainM != 3 {
		t.Fatalf("expected gain 3 across the gap, got %v", snap.ElevationGainM)
	}
}

func TestSpeedTracking(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := agg.Ingest(LocationSample{Latitude: 35, Longitude: 139, SpeedMps: 10}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35.001, Longitude: 139, SpeedMps: 5}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	snap, _ := agg.Snapshot()
	if math.Abs(snap.CurrentSpeedKmh-18) > 1e-9 {
		t.Fatalf("unexpected current speed: %v", snap.CurrentSpeedKmh)
	}
	if math.Abs(snap.MaxSpeedKmh-36) > 1e-9 {
		t.Fatalf("unexpected max speed: %v", snap.MaxSpeedKmh)
	}
}

func TestAverageSpeedZeroDuration(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35, Longitude: 139, SpeedMps: 5}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35.01, Longitude: 139, SpeedMps: 5}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	snap, _ := agg.Snapshot()
	if snap.AvgSpeedKmh != 0 {
		t.Fatalf("expected zero average at zero duration, got %v", snap.AvgSpeedKmh)
	}
	if math.IsNaN(snap.AvgSpeedKmh) || math.IsInf(snap.AvgSpeedKmh, 0) {
		t.Fatalf("average speed must be finite")
	}
}

func TestTickDrivesDurationAndAverage(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35, Longitude: 139}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35.01, Longitude: 139}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// Duration advances on wall-clock ticks, not on sample arrival.
	for i := 0; i < 3600; i++ {
		if err := agg.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	snap, _ := agg.Snapshot()
	if snap.DurationSec != 3600 {
		t.Fatalf("unexpected duration: %d", snap.DurationSec)
	}
	if math.Abs(snap.AvgSpeedKmh-snap.DistanceKm) > 1e-9 {
		t.Fatalf("after one hour average should equal distance, got %v vs %v", snap.AvgSpeedKmh, snap.DistanceKm)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	agg := NewAggregator(40)
	if _, err := agg.Start(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := agg.Ingest(LocationSample{Latitude: 35, Longitude: 139}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	snap, _ := agg.Snapshot()
	snap.Route[0].Latitude = -1
	snap.DistanceKm = 999

	again, _ := agg.Snapshot()
	if again.Route[0].Latitude != 35 || again.DistanceKm == 999 {
		t.Fatalf("snapshot mutation leaked into aggregator state")
	}
}

func TestResume(t *testing.T) {
	agg := NewAggregator(40)

	snap := RideSession{
		ID:          "ride-9",
		StartedAt:   time.Now().Add(-10 * time.Minute),
		DurationSec: 300,
		DistanceKm:  4,
		Route: []LocationSample{
			{Latitude: 35, Longitude: 139, AltitudeM: ptr(20)},
		},
	}
	if err := agg.Resume(snap); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if err := agg.Ingest(LocationSample{Latitude: 35.001, Longitude: 139, AltitudeM: ptr(25)}); err != nil {
		t.Fatalf("ingest after resume: %v", err)
	}

	cur, active := agg.Snapshot()
	if !active {
		t.Fatalf("expected active session after resume")
	}
	if cur.ID != "ride-9" {
		t.Fatalf("expected resumed session id")
	}
	if cur.DistanceKm <= 4 {
		t.Fatalf("expected distance to keep accumulating, got %v", cur.DistanceKm)
	}
	if cur.ElevationGainM != 5 {
		t.Fatalf("expected gain against recovered altitude, got %v", cur.ElevationGainM)
	}

	if err := agg.Resume(snap); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}
