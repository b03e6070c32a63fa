package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"backend-ridetrack/internal/db"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNoRecovery is returned when no resumable session snapshot exists.
var ErrNoRecovery = errors.New("no resumable session")

// RecoveryStore persists the in-progress session snapshot. Implemented by
// recovery.Store; the indirection keeps this package free of storage details.
type RecoveryStore interface {
	Save(ctx context.Context, session RideSession) error
	Load(ctx context.Context) (RideSession, time.Time, bool, error)
	Clear(ctx context.Context) error
}

// Broadcaster pushes live snapshots to stream subscribers.
type Broadcaster interface {
	Broadcast(rideID string, payload []byte)
}

type Config struct {
	CaloriesPerKm    float64
	TickInterval     time.Duration
	SnapshotInterval time.Duration
}

// Service drives the aggregator: it validates and ingests samples, runs the
// duration ticker and the periodic recovery snapshot, writes completed rides
// to the ledger, and broadcasts live state.
type Service struct {
	db     db.Querier
	rec    RecoveryStore
	hub    Broadcaster
	agg    *Aggregator
	logger *zap.SugaredLogger
	cfg    Config

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewService(q db.Querier, rec RecoveryStore, hub Broadcaster, logger *zap.SugaredLogger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.CaloriesPerKm == 0 {
		cfg.CaloriesPerKm = 40
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 30 * time.Second
	}
	return &Service{
		db:     q,
		rec:    rec,
		hub:    hub,
		agg:    NewAggregator(cfg.CaloriesPerKm),
		logger: logger,
		cfg:    cfg,
	}
}

// StartRide begins a new session. Fails with ErrSessionActive if one is
// already in progress.
func (s *Service) StartRide(ctx context.Context) (RideSession, error) {
	session, err := s.agg.Start(time.Now())
	if err != nil {
		return RideSession{}, err
	}
	s.startTimers()
	s.logger.Infow("ride started", "ride_id", session.ID)
	return session, nil
}

// Ingest validates a raw sample and feeds it to the aggregator. Invalid
// samples are dropped without ending the ride; the returned bool reports
// whether the sample was accepted.
func (s *Service) Ingest(ctx context.Context, sample LocationSample) (RideSession, bool, error) {
	if err := ValidateSample(sample, time.Now()); err != nil {
		s.logger.Debugw("sample rejected", "reason", err)
		snap, _ := s.agg.Snapshot()
		return snap, false, nil
	}
	if err := s.agg.Ingest(sample); err != nil {
		return RideSession{}, false, err
	}

	snap, _ := s.agg.Snapshot()
	if s.hub != nil {
		payload, _ := json.Marshal(snap)
		s.hub.Broadcast(snap.ID, payload)
	}
	return snap, true, nil
}

// Snapshot exposes the current cumulative state without mutating it.
func (s *Service) Snapshot() (RideSession, bool) {
	return s.agg.Snapshot()
}

// StopRide freezes the session, persists it to the ledger, and deletes the
// recovery record.
func (s *Service) StopRide(ctx context.Context) (RideSession, error) {
	session, err := s.agg.Stop(time.Now())
	if err != nil {
		return RideSession{}, err
	}
	s.stopTimers()

	if s.db != nil {
		if err := s.saveRide(ctx, session); err != nil {
			// Keep the recovery record so the session is not lost with the
			// failed insert.
			s.logger.Warnw("failed to persist completed ride", "ride_id", session.ID, "error", err)
			return session, nil
		}
	}
	if s.rec != nil {
		if err := s.rec.Clear(ctx); err != nil {
			s.logger.Warnw("failed to clear recovery record", "error", err)
		}
	}
	s.logger.Infow("ride stopped", "ride_id", session.ID, "distance_km", session.DistanceKm)
	return session, nil
}

// PendingRecovery reports a resumable snapshot, if one exists within the
// recovery window. Abandoned snapshots are discarded by the store itself.
func (s *Service) PendingRecovery(ctx context.Context) (RideSession, time.Time, error) {
	if s.rec == nil {
		return RideSession{}, time.Time{}, ErrNoRecovery
	}
	snap, at, ok, err := s.rec.Load(ctx)
	if err != nil {
		return RideSession{}, time.Time{}, err
	}
	if !ok {
		return RideSession{}, time.Time{}, ErrNoRecovery
	}
	return snap, at, nil
}

// ResumeRecovered reconstructs the aggregator from the stored snapshot and
// resumes tracking.
func (s *Service) ResumeRecovered(ctx context.Context) (RideSession, error) {
	snap, _, err := s.PendingRecovery(ctx)
	if err != nil {
		return RideSession{}, err
	}
	if err := s.agg.Resume(snap); err != nil {
		return RideSession{}, err
	}
	s.startTimers()
	s.logger.Infow("ride resumed", "ride_id", snap.ID)
	cur, _ := s.agg.Snapshot()
	return cur, nil
}

// DiscardRecovered deletes the pending snapshot.
func (s *Service) DiscardRecovered(ctx context.Context) error {
	if s.rec == nil {
		return nil
	}
	return s.rec.Clear(ctx)
}

// History lists completed rides from the ledger, newest first.
func (s *Service) History(ctx context.Context) ([]RideSummary, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, started_at, ended_at, duration_sec, distance_km, avg_speed_kmh, max_speed_kmh, calories, elevation_gain_m
		FROM rides
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []RideSummary
	for rows.Next() {
		var r RideSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.DurationSec, &r.DistanceKm, &r.AvgSpeedKmh, &r.MaxSpeedKmh, &r.Calories, &r.ElevationGainM); err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, nil
}

// Ride loads one completed ride including its route.
func (s *Service) Ride(ctx context.Context, id string) (RideSession, error) {
	if s.db == nil {
		return RideSession{}, pgx.ErrNoRows
	}
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, ended_at, duration_sec, distance_km, avg_speed_kmh, max_speed_kmh, calories, elevation_gain_m, route
		FROM rides WHERE id=$1
	`, id)

	var ride RideSession
	var route []byte
	if err := row.Scan(&ride.ID, &ride.StartedAt, &ride.EndedAt, &ride.DurationSec, &ride.DistanceKm, &ride.AvgSpeedKmh, &ride.MaxSpeedKmh, &ride.Calories, &ride.ElevationGainM, &route); err != nil {
		return RideSession{}, err
	}
	if len(route) > 0 {
		if err := json.Unmarshal(route, &ride.Route); err != nil {
			return RideSession{}, err
		}
	}
	return ride, nil
}

func (s *Service) saveRide(ctx context.Context, session RideSession) error {
	route, err := json.Marshal(session.Route)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rides (id, started_at, ended_at, duration_sec, distance_km, avg_speed_kmh, max_speed_kmh, calories, elevation_gain_m, route)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, session.ID, session.StartedAt, session.EndedAt, session.DurationSec, session.DistanceKm,
		session.AvgSpeedKmh, session.MaxSpeedKmh, session.Calories, session.ElevationGainM, route)
	return err
}

func (s *Service) startTimers() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.runTimers(ctx)
}

func (s *Service) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// runTimers drives the 1-second duration tick and the periodic recovery
// snapshot. Both only read or atomically advance aggregator state, so their
// interleaving with ingestion is safe.
func (s *Service) runTimers(ctx context.Context) {
	tick := time.NewTicker(s.cfg.TickInterval)
	snapshot := time.NewTicker(s.cfg.SnapshotInterval)
	defer tick.Stop()
	defer snapshot.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			_ = s.agg.Tick()
		case <-snapshot.C:
			snap, active := s.agg.Snapshot()
			if !active || s.rec == nil {
				continue
			}
			if err := s.rec.Save(ctx, snap); err != nil {
				s.logger.Warnw("failed to persist session snapshot", "error", err)
			}
		}
	}
}
