package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lovpen/lovpen-server/pkg/errors"
	"github.com/lovpen/lovpen-server/pkg/logger"
	"github.com/lovpen/lovpen-server/pkg/metrics"
	"github.com/lovpen/lovpen-server/pkg/response"
)

const rateKeyPrefix = "ratelimit:"

// RateCounter increments a fixed-window counter for key and reports the
// count so far together with the time left in the window.
type RateCounter interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit caps requests per (client IP, route) to maxRequests per window.
// Counter failures fail open so a store outage never blocks signups.
func RateLimit(store RateCounter, maxRequests int, window time.Duration) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := rateKeyPrefix + c.ClientIP() + "|" + c.Request.Method + " " + route

		count, ttl, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate counter unavailable", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		resetSeconds := int64(math.Ceil(ttl.Seconds()))
		if resetSeconds < 1 {
			resetSeconds = 1
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetSeconds, 10))

		if count > int64(maxRequests) {
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.Header("Retry-After", strconv.FormatInt(resetSeconds, 10))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
