package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dirwa-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// RedisCalendarKeyPrefix prefixes the cached calendar of one entity.
	RedisCalendarKeyPrefix = "calendar:entity:"

	redisCacheTimeout = 2 * time.Second
)

// CalendarCache is a read-through cache of active calendars keyed by entity id.
// Cache failures are logged and treated as misses; the database stays the source of truth.
type CalendarCache interface {
	Get(ctx context.Context, entityID uuid.UUID) (*entity.Calendar, bool)
	Set(ctx context.Context, calendar *entity.Calendar)
	Invalidate(ctx context.Context, entityID uuid.UUID)
}

type redisCalendarCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedisCalendarCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) CalendarCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCalendarCache{client: client, ttl: ttl, log: log}
}

func CalendarCacheKey(entityID uuid.UUID) string {
	return RedisCalendarKeyPrefix + entityID.String()
}

func (c *redisCalendarCache) Get(ctx context.Context, entityID uuid.UUID) (*entity.Calendar, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, CalendarCacheKey(entityID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("Failed to read calendar cache for entity %s: %+v", entityID, err)
		}
		return nil, false
	}

	var calendar entity.Calendar
	if err := json.Unmarshal(raw, &calendar); err != nil {
		c.log.Warnf("Dropping corrupt calendar cache entry for entity %s: %+v", entityID, err)
		c.Invalidate(ctx, entityID)
		return nil, false
	}
	return &calendar, true
}

func (c *redisCalendarCache) Set(ctx context.Context, calendar *entity.Calendar) {
	raw, err := json.Marshal(calendar)
	if err != nil {
		c.log.Warnf("Failed to encode calendar %s for cache: %+v", calendar.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	if err := c.client.Set(ctx, CalendarCacheKey(calendar.EntityID), raw, c.ttl).Err(); err != nil {
		c.log.Warnf("Failed to cache calendar for entity %s: %+v", calendar.EntityID, err)
		return
	}
	c.log.Debugf("Cached calendar for entity %s (TTL=%v)", calendar.EntityID, c.ttl)
}

func (c *redisCalendarCache) Invalidate(ctx context.Context, entityID uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	if err := c.client.Del(ctx, CalendarCacheKey(entityID)).Err(); err != nil {
		c.log.Warnf("Failed to invalidate calendar cache for entity %s: %+v", entityID, err)
	}
}

// NoopCalendarCache never stores anything. Used when Redis is not configured.
type NoopCalendarCache struct{}

func (NoopCalendarCache) Get(context.Context, uuid.UUID) (*entity.Calendar, bool) { return nil, false }
func (NoopCalendarCache) Set(context.Context, *entity.Calendar)                   {}
func (NoopCalendarCache) Invalidate(context.Context, uuid.UUID)                   {}
