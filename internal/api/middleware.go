// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// RequestLogger assigns a request id, scopes a logger to it and logs a
// summary line once the handler returns.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := log.WithFields(map[string]interface{}{"request_id": rid})
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), reqLogger))

		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        routePath(c),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
			reqLogger.Error("request", fields)
			return
		}
		reqLogger.Info("request", fields)
	}
}

// CORS allows any origin. Preflight requests end here with 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-signature, x-request-id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestMetrics records latency per matched route.
func RequestMetrics(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.RecordRequest(c.Request.Context(), routePath(c), c.Writer.Status(), time.Since(start))
	}
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
