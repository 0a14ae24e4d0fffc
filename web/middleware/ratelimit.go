// Package middleware provides gin middleware for the taskwire web server.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskwire/taskwire/logger"
)

// RateLimitConfig configures the per-key fixed-window limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig limits by client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type window struct {
	start time.Time
	count int
}

// RateLimitMiddleware guards brute-forceable endpoints (login, register)
// with an in-process fixed window per key. State is per-process; a
// multi-node deployment is out of scope.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	var mu sync.Mutex
	windows := make(map[string]*window)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		now := time.Now()

		mu.Lock()
		w, ok := windows[key]
		if !ok || now.Sub(w.start) >= time.Minute {
			w = &window{start: now}
			windows[key] = w
		}
		w.count++
		count := w.count

		// Opportunistic cleanup of stale windows.
		if len(windows) > 10000 {
			for k, v := range windows {
				if now.Sub(v.start) >= time.Minute {
					delete(windows, k)
				}
			}
		}
		mu.Unlock()

		if count > config.RequestsPerMinute {
			logger.Warningf("rate limit exceeded for %q on %s", key, c.Request.URL.Path)
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
