package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentstack/rentstack/internal/config"
	"go.uber.org/zap"
)

// SigninMiddleware throttles sign-in attempts per client IP. On redis
// failure the request passes through so an outage cannot lock everyone out.
func SigninMiddleware(log *zap.Logger, cfg config.RateLimitConfig, bucket *TokenBucket) gin.HandlerFunc {
	limitLog := log.Named("ratelimit.signin")
	return func(c *gin.Context) {
		if !cfg.Enabled || bucket == nil {
			c.Next()
			return
		}

		key := "ratelimit:signin:" + c.ClientIP()
		result, err := bucket.Allow(c.Request.Context(), key, cfg.SigninRate, cfg.SigninBurst)
		if err != nil {
			limitLog.Warn("rate limit check failed, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many sign-in attempts, retry later",
			})
			return
		}
		c.Next()
	}
}
