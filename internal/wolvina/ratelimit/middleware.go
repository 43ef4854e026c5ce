package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// KeyFunc derives the limit key for a request.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys requests by remote address.
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// Middleware rejects requests over the limit with 429. Limiter errors let
// the request through.
func Middleware(limiter Limiter, keyFn KeyFunc, logger *log.Logger) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = ByClientIP
	}
	if logger == nil {
		logger = log.Nop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := keyFn(c)

		info, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.Error(ctx, "rate limiter unavailable", log.KV("key", key), log.Err(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !info.Allowed {
			retry := int(time.Until(info.ResetAt).Seconds() + 0.5)
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			logger.Warn(ctx, "rate limited",
				log.KV("key", key),
				log.KV("path", c.Request.URL.Path),
				log.KV("method", c.Request.Method))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail":      "Rate limit exceeded. Try again later.",
				"retry_after": retry,
				"limit":       info.Limit,
			})
			return
		}
		c.Next()
	}
}
