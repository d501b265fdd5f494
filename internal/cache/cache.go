// Package cache is a read-through cache of tournament snapshots with
// explicit invalidation by tournament id.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Backend stores raw values. Get returns ok=false on a miss.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type Cache struct {
	backend Backend
	ttl     time.Duration
}

func New(backend Backend, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl}
}

func prefix(tournamentID uuid.UUID) string {
	return fmt.Sprintf("tournament:%s:", tournamentID)
}

// GetOrLoad returns the cached value of name for the tournament, or calls
// load and caches its result. Backend failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c *Cache, tournamentID uuid.UUID, name string, load func(context.Context) (T, error)) (T, error) {
	key := prefix(tournamentID) + name

	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		slog.Warn("cache entry unreadable", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate drops every cached entry of the tournament.
func (c *Cache) Invalidate(ctx context.Context, tournamentID uuid.UUID) error {
	return c.backend.DeleteByPrefix(ctx, prefix(tournamentID))
}
