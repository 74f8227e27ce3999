package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
	CacheHit    = "hit"
	CacheMiss   = "miss"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goalboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "route"},
	)

	GoalMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalboard_goal_mutations_total",
			Help: "Goal mutations handled by the backend, by operation and result",
		},
		[]string{"op", "result"},
	)

	FeedCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalboard_feed_cache_lookups_total",
			Help: "Friends feed cache lookups, by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(GoalMutations)
		prometheus.MustRegister(FeedCacheLookups)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveMutation counts one mutation outcome.
func ObserveMutation(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	GoalMutations.WithLabelValues(op, result).Inc()
}
