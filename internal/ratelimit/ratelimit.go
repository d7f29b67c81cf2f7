package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vixel/vixel/internal/httputil"
	"github.com/vixel/vixel/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 10 * time.Minute
)

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-client token bucket keyed by client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop ends the background sweep of idle visitors.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// take spends one token for ip. When the bucket is empty it reports how long
// until the next token is available.
func (l *Limiter) take(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[ip]
	if !exists {
		v = &visitor{bucket: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	res := v.bucket.ReserveN(now, 1)
	if !res.OK() {
		return false, idleTimeout
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (l *Limiter) allow(ip string) bool {
	ok, _ := l.take(ip)
	return ok
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTimeout {
			delete(l.visitors, ip)
		}
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.take(httputil.ClientIP(r))
		if !ok {
			metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			httputil.WriteKindError(w, http.StatusTooManyRequests, "too many requests", "rate_limited", true)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
