package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RateLimiter counts requests per client in fixed windows. Each window has
// its own Redis key, so a counter can never outlive its window.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

type rateDecision struct {
	count     int64
	remaining int64
	resetAt   time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// bucket returns the key of the window holding now and the instant that
// window closes.
func (l *RateLimiter) bucket(client string, now time.Time) (string, time.Time) {
	start := now.Truncate(l.window)
	return fmt.Sprintf("rate_limit:%s:%d", client, start.Unix()), start.Add(l.window)
}

// take counts one request for client in the current window.
func (l *RateLimiter) take(ctx context.Context, client string) (rateDecision, error) {
	key, resetAt := l.bucket(client, l.now())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, resetAt.Add(time.Second))
	if _, err := pipe.Exec(ctx); err != nil {
		return rateDecision{}, err
	}

	count := incr.Val()
	return rateDecision{
		count:     count,
		remaining: max(0, int64(l.limit)-count),
		resetAt:   resetAt,
	}, nil
}

// Handler limits by client IP. Requests pass untouched while Redis is
// unreachable.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := l.take(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.WithError(err).Warn("[HTTP] Rate limiter skipped, redis error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.resetAt.Unix(), 10))

		if decision.count > int64(l.limit) {
			retryIn := math.Ceil(decision.resetAt.Sub(l.now()).Seconds())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"retry_in_s": int(retryIn),
			})
			return
		}

		c.Next()
	}
}

func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(rdb, limit, window).Handler()
}
