package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portfolio_rag",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "End-to-end latency of answered queries",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	rewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio_rag",
		Subsystem: "gate",
		Name:      "rewrites_total",
		Help:      "Corrective rewrites issued by gate (similarity, list)",
	}, []string{"gate"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio_rag",
		Subsystem: "query",
		Name:      "fallbacks_total",
		Help:      "Canned answers returned instead of a generated one, by reason (no_context, generation)",
	}, []string{"reason"})

	recoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio_rag",
		Subsystem: "retriever",
		Name:      "recoveries_total",
		Help:      "Index recoveries by kind (reindex, bootstrap) and outcome (ok, error, empty)",
	}, []string{"kind", "outcome"})
)
