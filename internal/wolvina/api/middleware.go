package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contextx "github.com/wolvina/wolvina-go/internal/wolvina/context"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Logging writes one structured line per request.
func Logging(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []log.Field{
			log.KV("method", c.Request.Method),
			log.KV("path", c.Request.URL.Path),
			log.KV("status", c.Writer.Status()),
			log.KV("latency_ms", time.Since(start).Milliseconds()),
			log.KV("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, log.KV("error", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "http request", fields...)
		default:
			logger.Debug(c.Request.Context(), "http request", fields...)
		}
	}
}

// Recovery turns panics into 500 responses.
func Recovery(logger *log.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered",
			log.KV("path", c.Request.URL.Path),
			log.KV("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// CORS allows the configured origins. An entry may be "*" or carry a
// leading or trailing wildcard.
func CORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case originAllowed(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		case len(origins) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Encoding, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range origins {
		switch {
		case allowed == "*" || allowed == origin:
			return true
		case strings.HasPrefix(allowed, "*") && strings.HasSuffix(origin, allowed[1:]):
			return true
		case strings.HasSuffix(allowed, "*") && strings.HasPrefix(origin, allowed[:len(allowed)-1]):
			return true
		}
	}
	return false
}
