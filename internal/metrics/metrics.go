package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "city_weather_cache_hits_total",
			Help: "Total weather cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "city_weather_cache_misses_total",
			Help: "Total weather cache misses",
		},
	)

	SharedFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "city_weather_shared_fetches_total",
			Help: "Total resolutions served by joining an in-flight upstream fetch",
		},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "city_weather_upstream_call_duration_seconds",
			Help:    "Upstream weather provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)
