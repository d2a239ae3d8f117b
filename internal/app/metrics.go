package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commentlist",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "commentlist",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	commentsListRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commentlist",
		Name:      "renders_total",
		Help:      "Comment-list models built, by whether comments are enabled.",
	}, []string{"outcome"})

	metadataCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commentlist",
		Name:      "metadata_cache_lookups_total",
		Help:      "Metadata cache lookups by result.",
	}, []string{"result"})
)
