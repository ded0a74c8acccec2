package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_messages_processed_total",
			Help: "Total number of messages processed by outcome (count)",
		},
		[]string{"outcome"},
	)

	BackoffDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_decisions_total",
			Help: "Total number of backoff decisions for recoverable failures (count)",
		},
		[]string{"result"},
	)

	BackoffDelaySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backoff_delay_seconds",
			Help:    "Visibility delay chosen for retried messages in seconds",
			Buckets: []float64{10, 30, 60, 300, 600, 900, 1200, 1800, 3600, 7200, 21600, 43200},
		},
	)

	VisibilityExtensionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_visibility_extensions_total",
			Help: "Total number of ChangeMessageVisibility calls by status (count)",
		},
		[]string{"status"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backoff_batch_size",
			Help:    "Number of messages per batch (count)",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	BatchFailedMessages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backoff_batch_failed_messages",
			Help:    "Number of messages reported for redelivery per batch (count)",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backoff_batch_duration_ms",
			Help:    "Batch processing duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)

	QueueOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_queue_operations_total",
			Help: "Total number of SQS API operations by status (count)",
		},
		[]string{"operation", "status"},
	)

	QueueOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoff_queue_operation_duration_ms",
			Help:    "Duration of SQS API operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 25000},
		},
		[]string{"operation"},
	)

	LedgerWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_ledger_writes_total",
			Help: "Total number of outcome ledger writes by status (count)",
		},
		[]string{"status"},
	)

	RuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoff_rule_evaluations_total",
			Help: "Total number of outcome rule evaluations (count)",
		},
		[]string{"rule", "result"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"limiter", "status"},
	)
)

func RegisterConsumerMetrics() {
	prometheus.MustRegister(MessagesProcessedTotal)
	prometheus.MustRegister(BackoffDecisionsTotal)
	prometheus.MustRegister(BackoffDelaySeconds)
	prometheus.MustRegister(VisibilityExtensionsTotal)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(BatchFailedMessages)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(RuleEvaluationsTotal)
}

func RegisterQueueMetrics() {
	prometheus.MustRegister(QueueOperationsTotal)
	prometheus.MustRegister(QueueOperationDuration)
}

func RegisterLedgerMetrics() {
	prometheus.MustRegister(LedgerWritesTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func IncMessageProcessed(outcome string) {
	MessagesProcessedTotal.WithLabelValues(outcome).Inc()
}

func IncBackoffRetry(delaySeconds int) {
	BackoffDecisionsTotal.WithLabelValues("retry").Inc()
	BackoffDelaySeconds.Observe(float64(delaySeconds))
}

func IncBackoffExhausted() {
	BackoffDecisionsTotal.WithLabelValues("exhausted").Inc()
}

func IncVisibilityExtension(status string) {
	VisibilityExtensionsTotal.WithLabelValues(status).Inc()
}

func ObserveBatch(size, failed int, duration time.Duration) {
	BatchSize.Observe(float64(size))
	BatchFailedMessages.Observe(float64(failed))
	BatchDuration.Observe(float64(duration.Milliseconds()))
}

func ObserveQueueOperation(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	QueueOperationsTotal.WithLabelValues(operation, status).Inc()
	QueueOperationDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func IncLedgerWrite(status string) {
	LedgerWritesTotal.WithLabelValues(status).Inc()
}

func IncRuleEvaluation(rule, result string) {
	RuleEvaluationsTotal.WithLabelValues(rule, result).Inc()
}
