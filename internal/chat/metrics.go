package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "chat_answers_total",
			Help:      "Chat answers by source",
		},
		[]string{"source"},
	)

	generationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookout",
			Name:      "chat_generation_duration_seconds",
			Help:      "Duration of answer generation calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)
)
