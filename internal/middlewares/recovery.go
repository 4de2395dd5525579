package middlewares

import (
	"net/http"
	"runtime/debug"

	"jeeforces/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic in any later handler into a JSON 500. It must be
// registered first so the session set further down the chain is still logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", recovered),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
				zap.ByteString("stack", debug.Stack()),
			}
			if identity, ok := CurrentIdentity(c); ok {
				fields = append(fields, zap.String("user_id", identity.ID.Hex()))
			}
			logger.Log.Error("Recovered from handler panic", fields...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}()
		c.Next()
	}
}
