// Package metrics exposes the Prometheus instrumentation for the answer
// pipeline. Collectors are registered on the default registry and served
// by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AnswersTotal counts answered questions by outcome
	// ("ok", "fallback", "retrieval_error").
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmdb_answers_total",
			Help: "Total number of answered questions by outcome",
		},
		[]string{"outcome"},
	)

	// AnswerDuration tracks end-to-end latency of the answer pipeline.
	AnswerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cmdb_answer_duration_seconds",
			Help:    "End-to-end answer pipeline latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GeneratorFallbacks counts primary generator failures converted into
	// fallback answers.
	GeneratorFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cmdb_generator_fallbacks_total",
			Help: "Primary generator failures absorbed by the fallback generator",
		},
	)

	// RetrievalErrors counts failed retrieval stages.
	RetrievalErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cmdb_retrieval_errors_total",
			Help: "Total number of failed graph retrievals",
		},
	)
)

func init() {
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(AnswerDuration)
	prometheus.MustRegister(GeneratorFallbacks)
	prometheus.MustRegister(RetrievalErrors)
}
