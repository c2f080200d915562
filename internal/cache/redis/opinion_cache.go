package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// DefaultViewsTTL bounds how stale a cached listing can get when the
// indexer stops invalidating.
const DefaultViewsTTL = 2 * time.Minute

// OpinionCache implements domain.OpinionCache. The whole decorated listing
// is one JSON value because every listing request filters over all of it.
//
// Key schema:
//
//	omc:views:opinions - JSON array of OpinionView
type OpinionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOpinionCache creates an OpinionCache.
func NewOpinionCache(c *Client, ttl time.Duration) *OpinionCache {
	if ttl <= 0 {
		ttl = DefaultViewsTTL
	}
	return &OpinionCache{rdb: c.Underlying(), ttl: ttl}
}

func viewsKey() string { return keyPrefix + "views:opinions" }

// SetViews replaces the cached listing.
func (oc *OpinionCache) SetViews(ctx context.Context, views []domain.OpinionView) error {
	data, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("redis: marshal views: %w", err)
	}
	if err := oc.rdb.Set(ctx, viewsKey(), data, oc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set views: %w", err)
	}
	return nil
}

// GetViews returns the cached listing or domain.ErrNotFound.
func (oc *OpinionCache) GetViews(ctx context.Context) ([]domain.OpinionView, error) {
	data, err := oc.rdb.Get(ctx, viewsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get views: %w", err)
	}
	var views []domain.OpinionView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, fmt.Errorf("redis: unmarshal views: %w", err)
	}
	return views, nil
}

// Invalidate drops the cached listing.
func (oc *OpinionCache) Invalidate(ctx context.Context) error {
	if err := oc.rdb.Del(ctx, viewsKey()).Err(); err != nil {
		return fmt.Errorf("redis: invalidate views: %w", err)
	}
	return nil
}

var _ domain.OpinionCache = (*OpinionCache)(nil)
