package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-ridetrack/internal/db"
	"backend-ridetrack/internal/telemetry"

	"go.uber.org/zap"
)

// The in-progress snapshot lives under one fixed key with overwrite
// semantics; there is never more than one resumable session.
const currentSessionKey = "ride:session:current"

type record struct {
	Session    telemetry.RideSession `json:"session"`
	LastUpdate time.Time             `json:"last_update"`
}

// Store persists in-progress session snapshots so a crashed or killed
// process can offer to resume a recent ride on the next startup.
type Store struct {
	blobs  db.BlobStore
	window time.Duration
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewStore(blobs db.BlobStore, window time.Duration, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		blobs:  blobs,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Save overwrites the current-session record with the given snapshot.
func (s *Store) Save(ctx context.Context, session telemetry.RideSession) error {
	payload, err := json.Marshal(record{Session: session, LastUpdate: s.now()})
	if err != nil {
		return err
	}
	return s.blobs.Set(ctx, currentSessionKey, payload)
}

// Load returns the stored snapshot if it is younger than the recovery
// window. Snapshots older than the window are treated as abandoned and
// deleted without being offered.
func (s *Store) Load(ctx context.Context) (telemetry.RideSession, time.Time, bool, error) {
	payload, err := s.blobs.Get(ctx, currentSessionKey)
	if errors.Is(err, db.ErrNotFound) {
		return telemetry.RideSession{}, time.Time{}, false, nil
	}
	if err != nil {
		return telemetry.RideSession{}, time.Time{}, false, err
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.logger.Warnw("discarding corrupt session snapshot", "error", err)
		_ = s.blobs.Remove(ctx, currentSessionKey)
		return telemetry.RideSession{}, time.Time{}, false, nil
	}

	if s.now().Sub(rec.LastUpdate) > s.window {
		s.logger.Infow("discarding abandoned session snapshot", "ride_id", rec.Session.ID, "last_update", rec.LastUpdate)
		_ = s.blobs.Remove(ctx, currentSessionKey)
		return telemetry.RideSession{}, time.Time{}, false, nil
	}

	return rec.Session, rec.LastUpdate, true, nil
}

// Clear deletes the current-session record.
func (s *Store) Clear(ctx context.Context) error {
	return s.blobs.Remove(ctx, currentSessionKey)
}
