package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(2)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "budgets are per IP")

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow("10.0.0.1"), "one token refills every 30s")
	assert.False(t, l.allow("10.0.0.1"))
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(5)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	l.allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}

func TestRateLimitedMiddleware(t *testing.T) {
	h := &handler{log: logging.Nop{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mw := h.rateLimited(newIPRateLimiter(1))(next)

	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	unlimited := h.rateLimited(nil)(next)
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		unlimited.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
