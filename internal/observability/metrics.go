package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	practiceTurnsTotal    *prometheus.CounterVec
	practiceCompletions   *prometheus.CounterVec
	practiceScores        prometheus.Histogram
	notificationsTotal    *prometheus.CounterVec
	notificationsDropped  *prometheus.CounterVec
	sseClientsActive      prometheus.Gauge
	whatsappMessagesTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "heycoach_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		practiceTurnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_practice_turns_total",
			Help: "Practice turns processed, labelled by outcome.",
		}, []string{"outcome"})

		practiceCompletions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_practice_completions_total",
			Help: "Practice attempt completion requests, labelled by outcome.",
		}, []string{"outcome"})

		practiceScores = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heycoach_practice_turn_score",
			Help:    "Distribution of evaluator scores per coach turn.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_notifications_published_total",
			Help: "Notifications published, labelled by type.",
		}, []string{"type"})

		notificationsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_notifications_dropped_total",
			Help: "Notifications not delivered to a stream client whose buffer was full, labelled by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heycoach_sse_clients_active",
			Help: "Number of connected notification stream clients.",
		})

		whatsappMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heycoach_whatsapp_messages_total",
			Help: "Inbound WhatsApp messages, labelled by kind.",
		}, []string{"kind"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			practiceTurnsTotal,
			practiceCompletions,
			practiceScores,
			notificationsTotal,
			notificationsDropped,
			sseClientsActive,
			whatsappMessagesTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// PracticeTurns counts advanced turns by outcome (scored, fallback, failed, conflict).
func PracticeTurns() *prometheus.CounterVec {
	RegisterMetrics()
	return practiceTurnsTotal
}

// PracticeCompletions counts completion requests by outcome.
func PracticeCompletions() *prometheus.CounterVec {
	RegisterMetrics()
	return practiceCompletions
}

// PracticeScores observes per-turn evaluator scores.
func PracticeScores() prometheus.Histogram {
	RegisterMetrics()
	return practiceScores
}

// NotificationsPublished counts published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// NotificationsDropped counts deliveries skipped because a stream client fell behind.
func NotificationsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsDropped
}

// SSEClientsActive tracks open notification streams.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// WhatsAppMessages counts inbound channel messages.
func WhatsAppMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return whatsappMessagesTotal
}
