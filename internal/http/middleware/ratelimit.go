package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/movierec-backend/internal/http/response"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*client
	sweep   time.Time
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		clients: map[string]*client{},
		now:     time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if now.Sub(rl.sweep) > rl.idle {
		for k, cl := range rl.clients {
			if now.Sub(cl.seen) > rl.idle {
				delete(rl.clients, k)
			}
		}
		rl.sweep = now
	}
	cl, ok := rl.clients[key]
	if !ok {
		cl = &client{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = cl
	}
	cl.seen = now
	return cl.lim
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := rl.limiter(c.ClientIP())
		if !lim.AllowN(rl.now(), 1) {
			c.Header("Retry-After", "1")
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errors.New("too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
