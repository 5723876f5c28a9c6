package documents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "predict:doc:"

// CacheClient is the subset of the Redis client used for document caching.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedSource is a read-through Redis cache in front of another source.
// Cache failures are logged and never fail a fetch.
type CachedSource struct {
	next   Source
	client CacheClient
	ttl    time.Duration
}

// NewCachedSource wraps next with a cache whose entries expire after ttl.
func NewCachedSource(next Source, client CacheClient, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, client: client, ttl: ttl}
}

func (s *CachedSource) Fetch(ctx context.Context, name string) (Document, error) {
	key := cacheKeyPrefix + name

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc Document
		if jsonErr := json.Unmarshal(raw, &doc); jsonErr == nil && doc.Name == name {
			slog.Debug("topic document cache hit", "name", name)
			return doc, nil
		}
		slog.Warn("discarding corrupt cached document", "name", name)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("document cache read failed", "name", name, "error", err)
	}

	doc, err := s.next.Fetch(ctx, name)
	if err != nil {
		return Document{}, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			slog.Warn("document cache write failed", "name", name, "error", err)
		}
	}
	return doc, nil
}
