package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var (
	_ domain.StatsCache = (*RedisStatsCache)(nil)
	_ domain.StatsCache = NoopStatsCache{}
)

type cachedStats struct {
	AsOf  streak.Date  `json:"as_of"`
	Stats streak.Stats `json:"stats"`
}

// RedisStatsCache stores the last computed stats of each habit together
// with the day they were computed for.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

func statsKey(habitID string) string {
	return fmt.Sprintf("stats:%s", habitID)
}

func (c *RedisStatsCache) Get(ctx context.Context, habitID string, today streak.Date) (streak.Stats, bool) {
	key := statsKey(habitID)

	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("habit_id", habitID).Warn("[CACHE] Redis read error")
		}
		return streak.Stats{}, false
	}

	var entry cachedStats
	if err := json.Unmarshal(val, &entry); err != nil {
		log.WithField("habit_id", habitID).Warn("[CACHE] Corrupted stats, cleaning up key")
		c.rdb.Del(ctx, key)
		return streak.Stats{}, false
	}

	// Yesterday's numbers are stale even inside the TTL.
	if entry.AsOf != today {
		return streak.Stats{}, false
	}
	return entry.Stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, habitID string, today streak.Date, stats streak.Stats) {
	data, err := json.Marshal(cachedStats{AsOf: today, Stats: stats})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsKey(habitID), data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("habit_id", habitID).Warn("[CACHE] Redis set error")
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, habitID string) {
	if err := c.rdb.Del(ctx, statsKey(habitID)).Err(); err != nil {
		log.WithError(err).WithField("habit_id", habitID).Warn("[CACHE] Failed to invalidate stats")
	}
}

// NoopStatsCache is used when Redis is disabled. Every lookup misses.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string, streak.Date) (streak.Stats, bool) {
	return streak.Stats{}, false
}

func (NoopStatsCache) Set(context.Context, string, streak.Date, streak.Stats) {}

func (NoopStatsCache) Invalidate(context.Context, string) {}
