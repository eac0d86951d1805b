// middleware/rate_limiter.go

package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/config"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/service"
)

const globalLimitAction = "http:request"

// RateLimiter applies a coarse per-client request quota in front of the
// router, using the same fixed-window limiter the authorization engine uses.
// Unlike the per-grant quotas, this one counts every request up front.
func RateLimiter(rateLimitSvc service.IRateLimitService, limit, windowMinutes int) gin.HandlerFunc {
	failOpen := config.GetBool("authz.failOpen")

	return func(c *gin.Context) {
		key := c.ClientIP() // Or use a user identifier
		count, err := rateLimitSvc.IncrementRateLimit(c, globalLimitAction, key, windowMinutes)
		if err != nil {
			if failOpen {
				logger.Warn("Rate limiting degraded, failing open", zap.Error(err), zap.String("ip", key))
				c.Next()
				return
			}
			logger.Error("Rate limiting failed", zap.Error(err), zap.String("ip", key))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rate limiting failed"})
			c.Abort()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			logger.Warn("Rate limit exceeded",
				zap.String("ip", key),
				zap.Int64("count", count),
				zap.Int("limit", limit))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
