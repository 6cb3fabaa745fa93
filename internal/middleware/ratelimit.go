package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quizgate/quizgate-backend/internal/clock"
	"github.com/quizgate/quizgate-backend/internal/response"
)

// RateLimiter caps requests per client IP inside a fixed window. It guards
// the auth endpoints against credential stuffing during an exam sitting; the
// quiz endpoints themselves are never limited, a taker racing a deadline must
// not be throttled.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
	clk     clock.Clock
}

type window struct {
	count   int
	openedAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per span per IP.
// The clock is injected the same way the quiz engine takes one.
func NewRateLimiter(limit int, span time.Duration, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
		clk:     clk,
	}
}

// Middleware rejects requests over the window budget with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.clk.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.openedAt) >= rl.span {
		rl.windows[ip] = &window{count: 1, openedAt: now}
		rl.pruneLocked(now)
		return true
	}

	w.count++
	return w.count <= rl.limit
}

// pruneLocked drops windows that expired at least one full span ago. Runs
// only on window rollover, so steady traffic from one IP costs nothing.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for ip, w := range rl.windows {
		if now.Sub(w.openedAt) >= 2*rl.span {
			delete(rl.windows, ip)
		}
	}
}
