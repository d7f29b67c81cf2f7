package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	YouTubeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vixel_youtube_requests_total",
			Help: "YouTube Data API calls by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "error", "rejected"
	)

	YouTubeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vixel_youtube_request_duration_seconds",
			Help:    "Duration of YouTube Data API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vixel_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vixel_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	RelatedSourceVideos = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vixel_related_source_videos_total",
			Help: "Candidate videos contributed by each related-video source",
		},
		[]string{"source"}, // "category", "keyword", "channel", "popular"
	)

	RegionDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vixel_region_detections_total",
			Help: "Resolved visitor regions by detection source",
		},
		[]string{"source"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vixel_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
