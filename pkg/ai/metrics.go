package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "heycoach",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI generation requests",
	}, []string{"provider", "persona"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heycoach",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI generation failures",
	}, []string{"provider", "persona"})

	evaluationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "heycoach",
		Subsystem: "ai",
		Name:      "evaluation_fallbacks_total",
		Help:      "Number of evaluator outputs replaced by the fallback evaluation",
	})
)
