package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkerPool is the subset of pond's pool statistics used for gauge
// registration. Both pond.Pool and pond.ResultPool satisfy it.
type WorkerPool interface {
	RunningWorkers() int64
	SubmittedTasks() uint64
	WaitingTasks() uint64
	SuccessfulTasks() uint64
	FailedTasks() uint64
	CompletedTasks() uint64
}

type MetricsService interface {
	GetRegistry() *prometheus.Registry
	RegisterPoolMetrics(name string, pool WorkerPool)

	// RPC transport metrics (block engine and ledger share these)
	IncRPCRequests(host, method string)
	ObserveRPCRequestDuration(host, method string, duration float64)
	IncRPCRequestFailure(host, method string)
	IncRPCRequestSuccess(host, method string)

	// Submission metrics
	IncSubmissionAttempts(outcome string)
	ObserveSubmissionAttempts(count int)
	IncBundleOutcome(state string)
	ObserveOutcomeWaitDuration(duration float64)

	// Sequential fallback metrics
	IncFallbackTransactions(status string)
	ObserveFallbackDuration(duration float64)
}

type metricsService struct {
	registry *prometheus.Registry

	rpcRequestsTotal    *prometheus.CounterVec
	rpcRequestsDuration *prometheus.SummaryVec
	rpcRequestFailures  *prometheus.CounterVec
	rpcRequestSuccesses *prometheus.CounterVec

	submissionAttemptsTotal  *prometheus.CounterVec
	submissionAttemptsNeeded prometheus.Histogram
	bundleOutcomesTotal      *prometheus.CounterVec
	outcomeWaitDuration      prometheus.Histogram

	fallbackTransactionsTotal *prometheus.CounterVec
	fallbackDuration          prometheus.Histogram
}

var _ MetricsService = (*metricsService)(nil)

// NewMetricsService creates a new metrics service with all metrics registered.
func NewMetricsService() MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
	}

	m.rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of JSON-RPC requests",
		},
		[]string{"host", "method"},
	)
	m.rpcRequestsDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "rpc_requests_duration_seconds",
			Help: "Duration of JSON-RPC requests",
		},
		[]string{"host", "method"},
	)
	m.rpcRequestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_request_failures_total",
			Help: "Total number of failed JSON-RPC requests",
		},
		[]string{"host", "method"},
	)
	m.rpcRequestSuccesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_request_successes_total",
			Help: "Total number of successful JSON-RPC requests",
		},
		[]string{"host", "method"},
	)

	m.submissionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_submission_attempts_total",
			Help: "Bundle submission attempts by outcome classification",
		},
		[]string{"outcome"},
	)
	m.submissionAttemptsNeeded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_submission_attempts_needed",
			Help:    "Number of attempts a single bundle submission needed",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		},
	)
	m.bundleOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_outcomes_total",
			Help: "Terminal bundle outcomes by state",
		},
		[]string{"state"},
	)
	m.outcomeWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_outcome_wait_duration_seconds",
			Help:    "Time spent polling for a bundle's terminal outcome",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	m.fallbackTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_transactions_total",
			Help: "Transactions executed through the sequential fallback path",
		},
		[]string{"status"},
	)
	m.fallbackDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fallback_duration_seconds",
			Help:    "Duration of a full sequential fallback run",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 180},
		},
	)

	m.registry.MustRegister(
		m.rpcRequestsTotal,
		m.rpcRequestsDuration,
		m.rpcRequestFailures,
		m.rpcRequestSuccesses,
		m.submissionAttemptsTotal,
		m.submissionAttemptsNeeded,
		m.bundleOutcomesTotal,
		m.outcomeWaitDuration,
		m.fallbackTransactionsTotal,
		m.fallbackDuration,
	)

	return m
}

// GetRegistry returns the prometheus registry.
func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metricsService) RegisterPoolMetrics(name string, pool WorkerPool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_workers_running",
			Help:        "Number of running worker goroutines",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.RunningWorkers())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_submitted_total",
			Help:        "Number of tasks submitted",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.SubmittedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_tasks_waiting",
			Help:        "Number of tasks currently waiting in the queue",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.WaitingTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_successful_total",
			Help:        "Number of tasks that completed successfully",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.SuccessfulTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_failed_total",
			Help:        "Number of tasks that completed with panic",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.FailedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_completed_total",
			Help:        "Number of tasks that completed either successfully or with panic",
			ConstLabels: prometheus.Labels{"pool": name},
		},
		func() float64 {
			return float64(pool.CompletedTasks())
		},
	))
}

func (m *metricsService) IncRPCRequests(host, method string) {
	m.rpcRequestsTotal.WithLabelValues(host, method).Inc()
}

func (m *metricsService) ObserveRPCRequestDuration(host, method string, duration float64) {
	m.rpcRequestsDuration.WithLabelValues(host, method).Observe(duration)
}

func (m *metricsService) IncRPCRequestFailure(host, method string) {
	m.rpcRequestFailures.WithLabelValues(host, method).Inc()
}

func (m *metricsService) IncRPCRequestSuccess(host, method string) {
	m.rpcRequestSuccesses.WithLabelValues(host, method).Inc()
}

func (m *metricsService) IncSubmissionAttempts(outcome string) {
	m.submissionAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *metricsService) ObserveSubmissionAttempts(count int) {
	m.submissionAttemptsNeeded.Observe(float64(count))
}

func (m *metricsService) IncBundleOutcome(state string) {
	m.bundleOutcomesTotal.WithLabelValues(state).Inc()
}

func (m *metricsService) ObserveOutcomeWaitDuration(duration float64) {
	m.outcomeWaitDuration.Observe(duration)
}

func (m *metricsService) IncFallbackTransactions(status string) {
	m.fallbackTransactionsTotal.WithLabelValues(status).Inc()
}

func (m *metricsService) ObserveFallbackDuration(duration float64) {
	m.fallbackDuration.Observe(duration)
}
