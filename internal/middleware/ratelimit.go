package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/response"
)

type attemptCounter interface {
	Enabled() bool
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// LoginRateLimit caps login attempts per client IP within a fixed window.
// Without a cache backend every request passes; backend errors fail open.
func LoginRateLimit(counter attemptCounter, attempts int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || !counter.Enabled() || attempts <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:login:" + c.ClientIP()
		count, err := counter.Increment(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count > int64(attempts) {
			logger.Warn("login rate limited", zap.String("ip", c.ClientIP()), zap.Int64("attempts", count))
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "too many login attempts, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
