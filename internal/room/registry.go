package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/immxrtalbeast/skillsync/internal/config"
)

// Registry owns every live room, keyed by the caller-supplied room id. Rooms
// are created lazily on first use and evicted once their member set has been
// empty past the configured grace period. The registry lock guards only the
// map; each room serializes its own state.
type Registry struct {
	log    *slog.Logger
	cfg    config.RoomConfig
	onDrop func()

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry(cfg config.RoomConfig, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:   log,
		cfg:   cfg,
		rooms: make(map[string]*Room),
	}
}

// OnDrop installs a hook invoked whenever a room drops an outbound event.
// Call it during wiring, before the registry starts serving.
func (r *Registry) OnDrop(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDrop = fn
}

// GetOrCreate returns the room for id, creating it on first sight.
func (r *Registry) GetOrCreate(id string) *Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		return room
	}
	room = newRoom(id, r.cfg.HistoryLimit, r.log, r.onDrop)
	r.rooms[id] = room
	r.log.Debug("room created", slog.String("room", id))
	return room
}

// Get returns the room for id if it exists.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// StartJanitor sweeps empty rooms in the background until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.EvictIdle(time.Now()); n > 0 {
					r.log.Info("evicted idle rooms", slog.Int("count", n))
				}
			}
		}
	}()
}

// EvictIdle removes every room whose member set has been empty longer than
// the grace period and returns how many were dropped.
func (r *Registry) EvictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, room := range r.rooms {
		idle := room.IdleSince()
		if idle.IsZero() {
			continue
		}
		if now.Sub(idle) >= r.cfg.EvictionGrace {
			delete(r.rooms, id)
			evicted++
		}
	}
	return evicted
}
