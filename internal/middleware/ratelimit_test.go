package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func hit(t *testing.T, rl *RateLimiter, ip string) int {
	t.Helper()
	router := newTestRouter(rl)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksOverBudget(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(2, time.Minute, clk)

	for i := 0; i < 2; i++ {
		if code := hit(t, rl, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, code)
		}
	}
	if code := hit(t, rl, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("over-budget request: got %d, want 429", code)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(1, time.Minute, clk)

	if code := hit(t, rl, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", code)
	}
	if code := hit(t, rl, "10.0.0.2"); code != http.StatusTooManyRequests {
		t.Fatalf("second request in window: got %d, want 429", code)
	}

	clk.Advance(time.Minute)
	if code := hit(t, rl, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("request in fresh window: got %d, want 200", code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(1, time.Minute, clk)

	if code := hit(t, rl, "10.0.0.3"); code != http.StatusOK {
		t.Fatalf("first client: got %d, want 200", code)
	}
	if code := hit(t, rl, "10.0.0.4"); code != http.StatusOK {
		t.Fatalf("second client: got %d, want 200", code)
	}
}
