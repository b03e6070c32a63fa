package telemetry

import (
	"errors"
	"sync"
	"time"

	"backend-ridetrack/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	// ErrSessionActive is returned when starting while a ride is in progress.
	ErrSessionActive = errors.New("ride session already active")
	// ErrSessionIdle is returned for ingest/tick/stop without an active ride.
	ErrSessionIdle = errors.New("no active ride session")
)

// Aggregator is the sole owner of in-progress ride state. It is a two-state
// machine (idle, active); every operation is one atomic critical section, so
// the duration ticker, the snapshot loop and sample ingestion can interleave
// freely without observing half-updated state.
type Aggregator struct {
	mu            sync.Mutex
	active        bool
	session       RideSession
	lastAltitude  *float64
	caloriesPerKm float64
}

func NewAggregator(caloriesPerKm float64) *Aggregator {
	return &Aggregator{caloriesPerKm: caloriesPerKm}
}

// Start transitions idle -> active with a fresh empty session.
func (a *Aggregator) Start(now time.Time) (RideSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return RideSession{}, ErrSessionActive
	}
	a.active = true
	a.lastAltitude = nil
	a.session = RideSession{
		ID:        uuid.NewString(),
		StartedAt: now,
	}
	return a.copySession(), nil
}

// Ingest appends an already-validated sample and updates the cumulative
// distance, speeds, elevation gain and calorie estimate.
func (a *Aggregator) Ingest(s LocationSample) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrSessionIdle
	}

	if n := len(a.session.Route); n > 0 {
		prev := a.session.Route[n-1]
		a.session.DistanceKm += geo.HaversineKm(prev.Latitude, prev.Longitude, s.Latitude, s.Longitude)
	}
	a.session.Route = append(a.session.Route, s)

	a.session.CurrentSpeedKmh = s.SpeedMps * 3.6
	if a.session.CurrentSpeedKmh > a.session.MaxSpeedKmh {
		a.session.MaxSpeedKmh = a.session.CurrentSpeedKmh
	}
	if a.session.DurationSec > 0 {
		a.session.AvgSpeedKmh = a.session.DistanceKm / (float64(a.session.DurationSec) / 3600)
	}

	// Elevation gain accumulates positive deltas only; descents never reduce it.
	if s.AltitudeM != nil {
		if a.lastAltitude != nil && *s.AltitudeM > *a.lastAltitude {
			a.session.ElevationGainM += *s.AltitudeM - *a.lastAltitude
		}
		alt := *s.AltitudeM
		a.lastAltitude = &alt
	}

	// Flat linear estimate, not a physiological model.
	a.session.Calories = a.session.DistanceKm * a.caloriesPerKm

	return nil
}

// Tick advances the ride duration by one second. It is driven by a wall-clock
// ticker so duration keeps counting even when no samples arrive.
func (a *Aggregator) Tick() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrSessionIdle
	}
	a.session.DurationSec++
	if a.session.DurationSec > 0 {
		a.session.AvgSpeedKmh = a.session.DistanceKm / (float64(a.session.DurationSec) / 3600)
	}
	return nil
}

// Stop freezes the session, transitions back to idle, and returns the
// completed record.
func (a *Aggregator) Stop(now time.Time) (RideSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return RideSession{}, ErrSessionIdle
	}
	a.active = false
	a.session.EndedAt = now
	done := a.copySession()
	a.lastAltitude = nil
	return done, nil
}

// Snapshot returns a copy of the current cumulative state without mutating
// it. The second return reports whether a ride is active.
func (a *Aggregator) Snapshot() (RideSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copySession(), a.active
}

// Resume reconstructs an active session from a recovered snapshot.
func (a *Aggregator) Resume(snap RideSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return ErrSessionActive
	}
	a.active = true
	a.session = snap
	a.session.EndedAt = time.Time{}
	a.session.Route = append([]LocationSample(nil), snap.Route...)
	a.lastAltitude = nil
	for i := len(a.session.Route) - 1; i >= 0; i-- {
		if alt := a.session.Route[i].AltitudeM; alt != nil {
			v := *alt
			a.lastAltitude = &v
			break
		}
	}
	return nil
}

func (a *Aggregator) copySession() RideSession {
	out := a.session
	out.Route = append([]LocationSample(nil), a.session.Route...)
	return out
}
