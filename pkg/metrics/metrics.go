// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMStreamDuration tracks LLM streaming response duration.
	LLMStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_stream_duration_seconds",
			Help:    "LLM streaming response duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// StreamsActive tracks in-flight billed response streams.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_streams_active",
			Help: "Number of in-flight response streams",
		},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks total messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)

	// WalletTransactionsTotal tracks wallet ledger entries by type.
	WalletTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_total",
			Help: "Total wallet transactions appended",
		},
		[]string{"type"},
	)

	// CreditsMovedTotal tracks credits debited and credited.
	CreditsMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_credits_moved_total",
			Help: "Total credits moved through wallets",
		},
		[]string{"direction"},
	)

	// InsufficientCreditsTotal tracks sends rejected for lack of funds.
	InsufficientCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insufficient_credits_total",
			Help: "Total message sends rejected for insufficient credits",
		},
	)

	// RefundsTotal tracks compensating refunds after failed generations.
	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_refunds_total",
			Help: "Total compensating refunds issued",
		},
	)

	// PersistenceFailuresTotal tracks log-only final content write failures.
	PersistenceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_persistence_failures_total",
			Help: "Total failures writing completed assistant content",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMStream records metrics for an LLM streaming response.
func RecordLLMStream(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMStreamDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordWalletTransaction records a ledger append.
func RecordWalletTransaction(txType string, amount int64) {
	WalletTransactionsTotal.WithLabelValues(txType).Inc()
	if amount < 0 {
		CreditsMovedTotal.WithLabelValues("debit").Add(float64(-amount))
	} else {
		CreditsMovedTotal.WithLabelValues("credit").Add(float64(amount))
	}
}

// IncrementStreams increments the active stream count.
func IncrementStreams() {
	StreamsActive.Inc()
}

// DecrementStreams decrements the active stream count.
func DecrementStreams() {
	StreamsActive.Dec()
}
