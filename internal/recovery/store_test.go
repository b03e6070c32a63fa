package recovery

import (
	"context"
	"testing"
	"time"

	"backend-ridetrack/internal/db"
	"backend-ridetrack/internal/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(db.NewBlobStore(client), 5*time.Minute, nil), client
}

func TestSaveAndLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := telemetry.RideSession{ID: "ride-1", DistanceKm: 12.5, DurationSec: 600}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, at, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected resumable snapshot")
	}
	if got.ID != "ride-1" || got.DistanceKm != 12.5 || got.DurationSec != 600 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if at.IsZero() {
		t.Fatalf("expected last update timestamp")
	}
}

func TestLoadWithinWindow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	saved := time.Now()
	store.now = func() time.Time { return saved }
	if err := store.Save(ctx, telemetry.RideSession{ID: "ride-2"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Read 4 minutes later: still resumable.
	store.now = func() time.Time { return saved.Add(4 * time.Minute) }
	_, _, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot within window to be resumable")
	}
}

func TestLoadAbandoned(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	saved := time.Now()
	store.now = func() time.Time { return saved }
	if err := store.Save(ctx, telemetry.RideSession{ID: "ride-3"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Read 6 minutes later: discarded automatically.
	store.now = func() time.Time { return saved.Add(6 * time.Minute) }
	_, _, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected abandoned snapshot to be discarded")
	}

	exists, err := client.Exists(ctx, currentSessionKey).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 0 {
		t.Fatalf("expected record deleted")
	}
}

func TestLoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	_, _, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected no snapshot")
	}
}

func TestLoadCorrupt(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	if err := client.Set(ctx, currentSessionKey, "{not json", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected corrupt snapshot to be dropped")
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, telemetry.RideSession{ID: "ride-4"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	_, _, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected cleared snapshot")
	}
}

func TestSaveOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, telemetry.RideSession{ID: "ride-5", DistanceKm: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, telemetry.RideSession{ID: "ride-5", DistanceKm: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: %v", err)
	}
	if got.DistanceKm != 2 {
		t.Fatalf("expected latest snapshot, got %v", got.DistanceKm)
	}
}
