package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vixel/vixel/internal/httputil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, rate float64, burst int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(rate, burst)
	l.now = clock.now
	t.Cleanup(l.Stop)
	return l, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func requestFrom(remoteAddr, forwardedFor string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/videos/popular", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return req
}

func TestNewLimiterAllowsFirstRequest(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 5)

	if !limiter.allow("192.168.1.1") {
		t.Error("expected first request from new IP to be allowed")
	}
}

func TestRequestsWithinBurstAreAllowed(t *testing.T) {
	burst := 5
	limiter, _ := newTestLimiter(t, 1, burst)

	for i := 0; i < burst; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Errorf("request %d within burst of %d should be allowed", i+1, burst)
		}
	}
}

func TestRequestsExceedingBurstAreDenied(t *testing.T) {
	burst := 3
	limiter, _ := newTestLimiter(t, 1, burst)

	for i := 0; i < burst; i++ {
		limiter.allow("192.168.1.1")
	}

	if limiter.allow("192.168.1.1") {
		t.Error("request exceeding burst should be denied")
	}
}

func TestTokensReplenishOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 2)

	limiter.allow("192.168.1.1")
	limiter.allow("192.168.1.1")
	if limiter.allow("192.168.1.1") {
		t.Error("expected request to be denied after exhausting burst")
	}

	clock.advance(150 * time.Millisecond)

	if !limiter.allow("192.168.1.1") {
		t.Error("expected request to be allowed after token replenishment")
	}
}

func TestDifferentIPsHaveIndependentLimits(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 2)

	limiter.allow("10.0.0.1")
	limiter.allow("10.0.0.1")
	if limiter.allow("10.0.0.1") {
		t.Error("expected third request from first IP to be denied")
	}

	if !limiter.allow("10.0.0.2") {
		t.Error("expected first request from second IP to be allowed despite first IP being exhausted")
	}
}

func TestTokensDoNotExceedBurst(t *testing.T) {
	burst := 3
	limiter, clock := newTestLimiter(t, 100, burst)

	limiter.allow("192.168.1.1")
	clock.advance(time.Minute)

	allowed := 0
	for i := 0; i < burst+2; i++ {
		if limiter.allow("192.168.1.1") {
			allowed++
		}
	}
	if allowed != burst {
		t.Errorf("expected exactly %d requests allowed, got %d", burst, allowed)
	}
}

func TestTake_ReportsWait(t *testing.T) {
	limiter, _ := newTestLimiter(t, 0.5, 1)

	limiter.take("10.0.0.1")
	ok, wait := limiter.take("10.0.0.1")

	if ok {
		t.Fatal("expected second request to be denied")
	}
	if wait != 2*time.Second {
		t.Errorf("expected 2s until next token, got %v", wait)
	}
}

func TestSweepRemovesIdleVisitors(t *testing.T) {
	limiter, clock := newTestLimiter(t, 1, 1)
	limiter.allow("10.0.0.1")
	clock.advance(idleTimeout / 2)
	limiter.allow("10.0.0.2")

	clock.advance(idleTimeout/2 + time.Second)
	limiter.sweep()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("expected idle visitor to be removed")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("expected recent visitor to be kept")
	}
}

func TestMiddlewareReturns200WhenAllowed(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 5)
	rec := httptest.NewRecorder()

	limiter.Middleware(okHandler()).ServeHTTP(rec, requestFrom("192.168.1.1:12345", ""))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body ok, got %s", rec.Body.String())
	}
}

func TestMiddlewareRejectsWhenRateLimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, 0.1, 1)
	handler := limiter.Middleware(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("192.168.1.1:12345", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("192.168.1.1:12345", ""))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "10" {
		t.Errorf("expected Retry-After=10, got %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	var body httputil.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "too many requests" || body.Kind != "rate_limited" || !body.CanRetry {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestMiddlewareKeysOnFirstForwardedAddress(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)
	handler := limiter.Middleware(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.99:1234", "203.0.113.50, 10.0.0.99"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.100:5678", "203.0.113.50"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for same forwarded client, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.99:1234", "203.0.113.51"))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a different forwarded client, got %d", rec.Code)
	}
}

func TestMiddlewareIgnoresRemotePort(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)
	handler := limiter.Middleware(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("192.168.1.1:1111", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("192.168.1.1:2222", ""))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected a new connection from the same host to share the bucket, got %d", rec.Code)
	}
}

func TestMiddlewareDoesNotCallNextHandlerWhenRateLimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)
	callCount := 0
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("192.168.1.1:12345", ""))
	}

	if callCount != 1 {
		t.Errorf("expected next handler to be called once, got %d", callCount)
	}
}
