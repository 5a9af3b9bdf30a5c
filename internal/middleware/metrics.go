package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Message metrics
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_messages_received_total",
		Help: "Total number of updates received",
	}, []string{"kind"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_messages_processed_total",
		Help: "Total number of updates processed",
	}, []string{"status"})

	commandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_commands_executed_total",
		Help: "Total number of commands executed",
	}, []string{"command"})

	repliesByStage = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_replies_total",
		Help: "Free-text replies by resolver stage",
	}, []string{"stage"})

	// Game metrics
	gameMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_game_moves_total",
		Help: "Game moves by kind and outcome",
	}, []string{"game", "outcome"})

	// External API metrics
	externalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "isida_external_request_duration_seconds",
		Help:    "Duration of external API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "status"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"namespace"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"namespace"})

	rateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isida_rate_limit_exceeded_total",
		Help: "Total number of rate limited updates",
	})

	// Storage metrics
	storageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"backend", "operation", "status"})

	storageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "isida_storage_operation_duration_seconds",
		Help:    "Duration of storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	broadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isida_broadcast_deliveries_total",
		Help: "Broadcast deliveries by status",
	}, []string{"status"})

	knownUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "isida_known_users",
		Help: "Number of users the bot has seen",
	})

	activeGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "isida_active_games",
		Help: "Number of running game sessions",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received update of the given kind
func (m *Metrics) RecordMessageReceived(kind string) {
	messagesReceived.WithLabelValues(kind).Inc()
}

// RecordMessageProcessed records a processed update
func (m *Metrics) RecordMessageProcessed(status string) {
	messagesProcessed.WithLabelValues(status).Inc()
}

// RecordCommandExecuted records an executed command
func (m *Metrics) RecordCommandExecuted(command string) {
	commandsExecuted.WithLabelValues(command).Inc()
}

// RecordReply records which resolver stage answered
func (m *Metrics) RecordReply(stage string) {
	repliesByStage.WithLabelValues(stage).Inc()
}

// RecordGameMove records a game move and its outcome
func (m *Metrics) RecordGameMove(game, outcome string) {
	gameMoves.WithLabelValues(game, outcome).Inc()
}

// RecordExternalRequest records a call to a third-party API
func (m *Metrics) RecordExternalRequest(service, status string, duration time.Duration) {
	externalRequestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(namespace string) {
	cacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(namespace string) {
	cacheMisses.WithLabelValues(namespace).Inc()
}

// RecordRateLimitExceeded records a rate limited update
func (m *Metrics) RecordRateLimitExceeded() {
	rateLimitExceeded.Inc()
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(backend, operation, status string, duration time.Duration) {
	storageOperations.WithLabelValues(backend, operation, status).Inc()
	storageOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordBroadcast records one broadcast delivery attempt
func (m *Metrics) RecordBroadcast(status string) {
	broadcastDeliveries.WithLabelValues(status).Inc()
}

// SetKnownUsers sets the number of known users
func (m *Metrics) SetKnownUsers(count int) {
	knownUsers.Set(float64(count))
}

// SetActiveGames sets the number of running game sessions
func (m *Metrics) SetActiveGames(count int) {
	activeGames.Set(float64(count))
}

// NewRouter returns the metrics and health endpoints
func NewRouter(path string) *mux.Router {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return router
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(path),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
