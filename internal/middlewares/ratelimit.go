package middlewares

import (
	"net/http"
	"strconv"

	"jeeforces/internal/logger"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit counts requests per session user, or per client IP for anonymous callers.
// When the counter store is unreachable the request is let through.
func RateLimit(limiter *services.FixedWindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if identity, ok := CurrentIdentity(c); ok {
			key = "user:" + identity.ID.Hex()
		}

		res, err := limiter.Check(c.Request.Context(), key)
		if err != nil {
			logger.Log.Error("Rate limiter unavailable",
				zap.String("limiter", limiter.Name()),
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			logger.Log.Warn("Rate limit exceeded",
				zap.String("limiter", limiter.Name()),
				zap.String("key", key),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
