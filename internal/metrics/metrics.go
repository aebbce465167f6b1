// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls made to the external catalog, by endpoint.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newish_catalog_requests_total",
		Help: "Requests issued to the external catalog API.",
	}, []string{"endpoint"})

	// CacheHits and CacheMisses track the response cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newish_response_cache_hits_total",
		Help: "Response cache hits.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newish_response_cache_misses_total",
		Help: "Response cache misses.",
	})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newish_rate_limited_total",
		Help: "Requests rejected with 429.",
	})
)
