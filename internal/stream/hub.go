package stream

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub fans live ride snapshots out to websocket subscribers. With a redis
// client attached it also relays snapshots across instances through pub/sub.
type Hub struct {
	redis   *redis.Client
	logger  *zap.SugaredLogger
	viewers map[string]map[*Viewer]struct{}
	mu      sync.RWMutex
}

// Viewer is one websocket subscriber watching a ride. Slow viewers drop
// messages instead of blocking the broadcaster.
type Viewer struct {
	RideID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	h := &Hub{
		redis:   redisClient,
		logger:  logger,
		viewers: map[string]map[*Viewer]struct{}{},
	}

	if redisClient != nil {
		go h.relayRedis()
	}
	return h
}

func (h *Hub) Subscribe(rideID string) *Viewer {
	viewer := &Viewer{
		RideID: rideID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.viewers[rideID] == nil {
		h.viewers[rideID] = map[*Viewer]struct{}{}
	}
	h.viewers[rideID][viewer] = struct{}{}
	return viewer
}

func (h *Hub) Unsubscribe(viewer *Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rideViewers, ok := h.viewers[viewer.RideID]; ok {
		delete(rideViewers, viewer)
		if len(rideViewers) == 0 {
			delete(h.viewers, viewer.RideID)
		}
	}
	close(viewer.Send)
}

func (h *Hub) Broadcast(rideID string, payload []byte) {
	h.deliver(rideID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), rideChannel(rideID), payload).Err()
		if err != nil {
			h.logger.Warnw("failed to publish ride snapshot", "ride_id", rideID, "error", err)
		}
	}
}

func (h *Hub) deliver(rideID string, payload []byte) {
	h.mu.RLock()
	viewers := h.viewers[rideID]
	h.mu.RUnlock()

	for viewer := range viewers {
		select {
		case viewer.Send <- payload:
		default:
		}
	}
}

func (h *Hub) relayRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "ride:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(rideIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func rideChannel(rideID string) string {
	return "ride:" + rideID + ":live"
}

func rideIDFromChannel(ch string) string {
	// ride:{id}:live
	const prefix = "ride:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
