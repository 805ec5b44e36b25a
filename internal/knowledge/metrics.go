package knowledge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "knowledge_cache_events_total",
			Help:      "Knowledge entry cache events by result",
		},
		[]string{"result"},
	)

	crawlRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "crawl_requests_total",
			Help:      "Crawl requests handled, by outcome",
		},
		[]string{"status"},
	)
)
