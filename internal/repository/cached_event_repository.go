package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/pkg/logger"
	"github.com/yadev07/cs-eventsphere-backend/pkg/redis"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

const (
	eventCacheKeyPrefix = "event:"

	// DefaultEventCacheTTL bounds staleness of cached event reads. Counters in
	// a cached copy may lag live writes by at most this long.
	DefaultEventCacheTTL = 5 * time.Minute
)

// EventCacheInvalidator is implemented by event repositories that keep a
// cache. Registration writes use it to drop stale counter snapshots.
type EventCacheInvalidator interface {
	Invalidate(ctx context.Context, id string)
}

// CachedEventRepository decorates an EventRepository with a Redis read-through
// cache for single-event lookups. Writes go straight to the inner repository
// and invalidate the cached copy. Cache failures are logged and ignored: Redis
// being down degrades reads to the database, it never fails them.
type CachedEventRepository struct {
	inner EventRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(inner EventRepository, cache *redis.Client, ttl time.Duration) *CachedEventRepository {
	if ttl <= 0 {
		ttl = DefaultEventCacheTTL
	}
	return &CachedEventRepository{inner: inner, cache: cache, ttl: ttl}
}

// Create inserts the event and primes nothing; the first read populates the cache
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.inner.Create(ctx, event)
}

// GetActiveByID retrieves an event, serving from cache when possible
func (r *CachedEventRepository) GetActiveByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.cached.event.get_active_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	key := eventCacheKeyPrefix + id

	raw, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		event := &domain.Event{}
		if err := json.Unmarshal([]byte(raw), event); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return event, nil
		}
		// Corrupt entry, drop it and fall through to the database
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, goredis.Nil) {
		logger.Get().Warn("event cache read failed",
			zap.String("event_id", id),
			zap.Error(err),
		)
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	event, err := r.inner.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(event); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl).Err(); err != nil {
			logger.Get().Warn("event cache write failed",
				zap.String("event_id", id),
				zap.Error(err),
			)
		}
	}

	return event, nil
}

// List bypasses the cache; list results are too varied to cache usefully here
func (r *CachedEventRepository) List(ctx context.Context, status domain.Phase, limit, offset int) ([]*domain.Event, error) {
	return r.inner.List(ctx, status, limit, offset)
}

// SoftDelete removes the event and its cached copy
func (r *CachedEventRepository) SoftDelete(ctx context.Context, id string) error {
	if err := r.inner.SoftDelete(ctx, id); err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

// ListForStatusRefresh bypasses the cache; the reconciler needs fresh rows
func (r *CachedEventRepository) ListForStatusRefresh(ctx context.Context, limit int) ([]*domain.Event, error) {
	return r.inner.ListForStatusRefresh(ctx, limit)
}

// UpdateStatus persists the status and invalidates the cached copy when the
// stored value changed
func (r *CachedEventRepository) UpdateStatus(ctx context.Context, id string, status domain.Phase) (bool, error) {
	changed, err := r.inner.UpdateStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	if changed {
		r.Invalidate(ctx, id)
	}
	return changed, nil
}

// Invalidate drops the cached copy of an event. Registration writes call this
// after counter updates so cached counters converge within one read.
func (r *CachedEventRepository) Invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, eventCacheKeyPrefix+id).Err(); err != nil {
		logger.Get().Warn("event cache invalidation failed",
			zap.String("event_id", id),
			zap.Error(err),
		)
	}
}

// Ensure CachedEventRepository implements EventRepository
var _ EventRepository = (*CachedEventRepository)(nil)
