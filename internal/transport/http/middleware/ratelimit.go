package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "estate-listings/internal/transport/http/response"
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP applies one token bucket per client IP. Buckets idle for
// longer than ten minutes are dropped.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		swept    = time.Now()
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(swept) > time.Minute {
			for k, v := range visitors {
				if now.Sub(v.seen) > 10*time.Minute {
					delete(visitors, k)
				}
			}
			swept = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{lim: rate.NewLimiter(rps, burst)}
			visitors[ip] = v
		}
		v.seen = now
		allowed := v.lim.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			resp.Fail(c, resp.CodeTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
