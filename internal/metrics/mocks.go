package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockMetricsService is a mock implementation of MetricsService
type MockMetricsService struct {
	mock.Mock
}

// NewMockMetricsService creates a new mock metrics service
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

var _ MetricsService = (*MockMetricsService)(nil)

func (m *MockMetricsService) GetRegistry() *prometheus.Registry {
	args := m.Called()
	return args.Get(0).(*prometheus.Registry)
}

func (m *MockMetricsService) RegisterPoolMetrics(name string, pool WorkerPool) {
	m.Called(name, pool)
}

func (m *MockMetricsService) IncRPCRequests(host, method string) {
	m.Called(host, method)
}

func (m *MockMetricsService) ObserveRPCRequestDuration(host, method string, duration float64) {
	m.Called(host, method, duration)
}

func (m *MockMetricsService) IncRPCRequestFailure(host, method string) {
	m.Called(host, method)
}

func (m *MockMetricsService) IncRPCRequestSuccess(host, method string) {
	m.Called(host, method)
}

func (m *MockMetricsService) IncSubmissionAttempts(outcome string) {
	m.Called(outcome)
}

func (m *MockMetricsService) ObserveSubmissionAttempts(count int) {
	m.Called(count)
}

func (m *MockMetricsService) IncBundleOutcome(state string) {
	m.Called(state)
}

func (m *MockMetricsService) ObserveOutcomeWaitDuration(duration float64) {
	m.Called(duration)
}

func (m *MockMetricsService) IncFallbackTransactions(status string) {
	m.Called(status)
}

func (m *MockMetricsService) ObserveFallbackDuration(duration float64) {
	m.Called(duration)
}
