package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/metrics"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IPRateLimiter is a sliding-window limiter kept in process memory.
type IPRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	swept    time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *IPRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	rl.sweep(now, cutoff)

	// Clean old requests
	requests := rl.requests[key]
	i := 0
	for ; i < len(requests); i++ {
		if requests[i].After(cutoff) {
			break
		}
	}
	requests = requests[i:]

	if len(requests) >= rl.limit {
		rl.requests[key] = requests
		return false, nil
	}

	rl.requests[key] = append(requests, now)
	return true, nil
}

// sweep drops clients with no request inside the window, at most once per window.
func (rl *IPRateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.swept) < rl.window {
		return
	}
	rl.swept = now
	for key, requests := range rl.requests {
		if len(requests) == 0 || !requests[len(requests)-1].After(cutoff) {
			delete(rl.requests, key)
		}
	}
}

// Len reports how many clients are currently tracked.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

// RedisLimiter is a fixed-window limiter shared by every instance using the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = fmt.Sprintf("rl:%s", key)

	// INCR and set EXPIRE if new
	cnt, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		metrics.RedisErrorRate.WithLabelValues("incr").Inc()
		return true, err
	}
	if cnt == 1 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			metrics.RedisErrorRate.WithLabelValues("expire").Inc()
			return true, err
		}
	}
	return cnt <= int64(rl.limit), nil
}

// RateLimit limits requests per client IP under the given resource name.
// Limiter failures let the request through.
func RateLimit(limiter Limiter, resource string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:ip:%s", resource, c.ClientIP())

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", "resource", resource, "error", err.Error())
		}
		if !allowed {
			metrics.RateLimitRejections.WithLabelValues(resource).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
