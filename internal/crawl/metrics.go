package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page outcomes recorded under crawl_pages_total.
const (
	pageSummarized = "summarized"
	pageEmpty      = "empty"
	pageNonHTML    = "non_html"
	pageFailed     = "failed"
	pageBlocked    = "blocked"
)

var (
	crawlPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "crawl_pages_total",
			Help:      "Total pages processed during crawls",
		},
		[]string{"status"},
	)

	crawlDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookout",
			Name:      "crawl_duration_seconds",
			Help:      "Duration of crawls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
		},
	)

	linkDiscoveryTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "link_discovery_total",
			Help:      "Total in-scope links discovered from crawled pages",
		},
	)
)
