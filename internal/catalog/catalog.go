// Package catalog is the read-through workout catalog cache.  The whole
// catalog is small, so it is cached as one snapshot refreshed from a full
// scan: in Redis when a client is configured (shared across instances),
// otherwise in process memory.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
)

// DefaultTTL is the lifetime of a catalog snapshot.
const DefaultTTL = 2 * time.Hour

const redisKey = "catalog:workouts"

// Source is the authoritative catalog store.
type Source interface {
	List(ctx context.Context) ([]model.Workout, error)
	Get(ctx context.Context, workoutID string) (model.Workout, error)
}

// Cache serves catalog entries from a snapshot.  Snapshot maps returned by
// All are shared and must not be modified.
type Cache struct {
	src   Source
	rdb   *redis.Client
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu        sync.RWMutex
	local     map[string]model.Workout
	expiresAt time.Time
}

// New builds a cache over src.  rdb may be nil.  A non-positive ttl selects
// DefaultTTL.
func New(src Source, rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{src: src, rdb: rdb, ttl: ttl, now: time.Now}
}

// GetWorkoutInfo returns one catalog entry.  An id missing from the snapshot
// is looked up in the source directly so entries added after the last
// refresh are still found; a missing entry yields the source's not-found
// error.
func (c *Cache) GetWorkoutInfo(ctx context.Context, workoutID string) (model.Workout, error) {
	all, err := c.All(ctx)
	if err != nil {
		return model.Workout{}, err
	}
	if w, ok := all[workoutID]; ok {
		return w, nil
	}
	return c.src.Get(ctx, workoutID)
}

// All returns the current snapshot keyed by workout id, refreshing it when
// it is missing or expired.
func (c *Cache) All(ctx context.Context) (map[string]model.Workout, error) {
	if snap, ok := c.cached(ctx); ok {
		return snap, nil
	}
	v, err, _ := c.group.Do(redisKey, func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]model.Workout), nil
}

// Invalidate drops the snapshot so the next read rescans the source.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.local = nil
	c.mu.Unlock()
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, redisKey).Err(); err != nil {
			log.Printf("catalog: redis del failed: %v", err)
		}
	}
}

func (c *Cache) cached(ctx context.Context) (map[string]model.Workout, bool) {
	if c.rdb != nil {
		bs, err := c.rdb.Get(ctx, redisKey).Bytes()
		switch {
		case err == nil:
			snap := map[string]model.Workout{}
			if err := json.Unmarshal(bs, &snap); err == nil {
				return snap, true
			}
			log.Printf("catalog: discarding undecodable redis snapshot")
		case !errors.Is(err, redis.Nil):
			log.Printf("catalog: redis get failed, using local snapshot: %v", err)
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.local != nil && c.now().Before(c.expiresAt) {
		return c.local, true
	}
	return nil, false
}

func (c *Cache) refresh(ctx context.Context) (map[string]model.Workout, error) {
	list, err := c.src.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(map[string]model.Workout, len(list))
	for _, w := range list {
		snap[w.ID] = w
	}
	c.mu.Lock()
	c.local = snap
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()

	if c.rdb != nil {
		bs, err := json.Marshal(snap)
		if err == nil {
			err = c.rdb.SetEx(ctx, redisKey, bs, c.ttl).Err()
		}
		if err != nil {
			log.Printf("catalog: redis snapshot write failed: %v", err)
		}
	}
	log.Printf("catalog: refreshed %d workouts", len(snap))
	return snap, nil
}
