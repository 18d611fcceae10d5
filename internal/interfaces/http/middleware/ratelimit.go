package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// NewLimiter builds a limiter allowing requests per window. With a redis
// client the counters are shared between instances.
func NewLimiter(requests int, window time.Duration, client *redis.Client) (*limiter.Limiter, error) {
	rate := limiter.Rate{Period: window, Limit: int64(requests)}
	if client == nil {
		return limiter.New(memory.NewStore(), rate), nil
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "pos:ratelimit"})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// RateLimit limits requests per user when authenticated, per client IP
// otherwise. A failing store lets the request through.
func RateLimit(l *limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := c.GetString(JWTUserIDKey); userID != "" {
			key = "user:" + userID
		}

		lc, err := l.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		if lc.Reached {
			c.Header("Retry-After", strconv.FormatInt(max(lc.Reset-time.Now().Unix(), 1), 10))
			abort(c, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
