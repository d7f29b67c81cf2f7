package youtube

import (
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vixel/vixel/internal/metrics"
)

// newBreaker opens after a 60% failure rate over at least 10 requests in a
// one minute window and probes again after 30 seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("youtube: circuit breaker state change", "breaker", name, "from", stateName(from), "to", stateName(to))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateName(from), stateName(to)).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || breakerNeutral(err)
		},
	})
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateName(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
