// Package metrics provides Prometheus metrics for palaver.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultApplied  = "applied"
	ResultMiss     = "miss"
	ResultRejected = "rejected"

	StatusOK          = "ok"
	StatusError       = "error"
	StatusUnsupported = "unsupported"
)

type Metrics struct {
	// Conversation log metrics
	LogMutationsTotal *prometheus.CounterVec

	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	StreamChunksTotal       prometheus.Counter
	GenerationsInFlight     prometheus.Gauge

	// Smart replies and caching
	SuggestionRequestsTotal   prometheus.Counter
	SuggestionsDiscarded      prometheus.Counter
	ProviderCacheLookupsTotal *prometheus.CounterVec

	// Audio
	PlaybacksActive prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.LogMutationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palaver_log_mutations_total",
			Help: "Conversation log mutations by name and outcome",
		},
		[]string{"mutation", "result"},
	)

	m.ProviderRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palaver_provider_requests_total",
			Help: "Total number of AI provider requests",
		},
		[]string{"operation", "status"},
	)

	m.ProviderRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palaver_provider_request_duration_seconds",
			Help:    "Duration of AI provider requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	m.StreamChunksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "palaver_stream_chunks_total",
			Help: "Total number of streamed completion chunks merged into a log",
		},
	)

	m.GenerationsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "palaver_generations_in_flight",
			Help: "Number of assistant generations currently running",
		},
	)

	m.SuggestionRequestsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "palaver_suggestion_requests_total",
			Help: "Total number of smart reply requests",
		},
	)

	m.SuggestionsDiscarded = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "palaver_suggestions_discarded_total",
			Help: "Smart reply results dropped because they were stale",
		},
	)

	m.ProviderCacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palaver_provider_cache_lookups_total",
			Help: "Provider cache lookups by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	m.PlaybacksActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "palaver_playbacks_active",
			Help: "Number of active audio playbacks, at most one",
		},
	)

	return m
}

// RecordMutation matches conversation.ResultRecorder.
func (m *Metrics) RecordMutation(mutation string, err error) {
	if m == nil {
		return
	}
	result := ResultApplied
	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrMessageNotFound), errors.Is(err, conversation.ErrReactionsDisabled):
		result = ResultMiss
	default:
		result = ResultRejected
	}
	m.LogMutationsTotal.WithLabelValues(mutation, result).Inc()
}

func (m *Metrics) RecordProviderRequest(operation string, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheLookup(operation string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProviderCacheLookupsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) RecordChunk() {
	if m == nil {
		return
	}
	m.StreamChunksTotal.Inc()
}

func (m *Metrics) GenerationStarted() {
	if m == nil {
		return
	}
	m.GenerationsInFlight.Inc()
}

func (m *Metrics) GenerationFinished() {
	if m == nil {
		return
	}
	m.GenerationsInFlight.Dec()
}

func (m *Metrics) RecordSuggestionRequest() {
	if m == nil {
		return
	}
	m.SuggestionRequestsTotal.Inc()
}

func (m *Metrics) RecordSuggestionsDiscarded() {
	if m == nil {
		return
	}
	m.SuggestionsDiscarded.Inc()
}

func (m *Metrics) SetPlaying(playing bool) {
	if m == nil {
		return
	}
	if playing {
		m.PlaybacksActive.Set(1)
	} else {
		m.PlaybacksActive.Set(0)
	}
}
