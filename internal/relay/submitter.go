package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/solfleet/bundle-engine/internal/bundle"
	"github.com/solfleet/bundle-engine/internal/endpoints"
	"github.com/solfleet/bundle-engine/internal/metrics"
	"github.com/solfleet/bundle-engine/internal/utils"
)

const (
	DefaultMaxAttempts       = 5
	DefaultPerAttemptTimeout = 30 * time.Second
	DefaultBaseDelay         = 1 * time.Second
	DefaultBackoffFactor     = 1.5
	DefaultMaxDelay          = 60 * time.Second
)

type SubmitterOptions struct {
	Client         Client
	EndpointPool   *endpoints.Pool
	MetricsService metrics.MetricsService
	Logger         *logrus.Entry

	MaxAttempts       uint
	PerAttemptTimeout time.Duration
	BaseDelay         time.Duration
	BackoffFactor     float64
	MaxDelay          time.Duration
}

func (o *SubmitterOptions) ValidateOptions() error {
	if o.Client == nil {
		return fmt.Errorf("client cannot be nil")
	}
	if o.EndpointPool == nil {
		return fmt.Errorf("endpoint pool cannot be nil")
	}
	if o.MetricsService == nil {
		return fmt.Errorf("metrics service cannot be nil")
	}
	return nil
}

// Submitter posts a bundle to the block engine, walking a freshly shuffled
// endpoint order with jittered exponential backoff between attempts.
type Submitter struct {
	client         Client
	pool           *endpoints.Pool
	metricsService metrics.MetricsService
	logger         *logrus.Entry

	maxAttempts       uint
	perAttemptTimeout time.Duration
	baseDelay         time.Duration
	backoffFactor     float64
	maxDelay          time.Duration
}

func NewSubmitter(opts SubmitterOptions) (*Submitter, error) {
	if err := opts.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating submitter options: %w", err)
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PerAttemptTimeout == 0 {
		opts.PerAttemptTimeout = DefaultPerAttemptTimeout
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.BackoffFactor == 0 {
		opts.BackoffFactor = DefaultBackoffFactor
	}
	if opts.MaxDelay == 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Submitter{
		client:            opts.Client,
		pool:              opts.EndpointPool,
		metricsService:    opts.MetricsService,
		logger:            opts.Logger,
		maxAttempts:       opts.MaxAttempts,
		perAttemptTimeout: opts.PerAttemptTimeout,
		baseDelay:         opts.BaseDelay,
		backoffFactor:     opts.BackoffFactor,
		maxDelay:          opts.MaxDelay,
	}, nil
}

// Submit sends the bundle until the engine accepts it, a non-retryable
// rejection is observed, or the attempt budget is exhausted. When attempts
// outnumber endpoints the shuffled order wraps around. Returns the engine's
// bundle id on acceptance.
func (s *Submitter) Submit(ctx context.Context, b bundle.Bundle) (string, error) {
	order := s.pool.ShuffledOrder()
	encodedTxs := b.EncodeBase58()

	var attempts int
	bundleID, err := retry.DoWithData(
		func() (string, error) {
			endpoint := order[attempts%len(order)]
			attempts++

			attemptCtx, cancel := context.WithTimeout(ctx, s.perAttemptTimeout)
			defer cancel()

			outcome := s.client.SendBundle(attemptCtx, endpoint, encodedTxs)
			s.metricsService.IncSubmissionAttempts(outcome.Kind.String())
			switch outcome.Kind {
			case OutcomeAccepted:
				s.logger.WithFields(logrus.Fields{
					"endpoint":  endpoint,
					"bundle_id": outcome.BundleID,
					"attempt":   attempts,
				}).Info("bundle accepted by block engine")
				return outcome.BundleID, nil
			case OutcomeRejected:
				return "", retry.Unrecoverable(fmt.Errorf("bundle rejected by %s: %s", endpoint, outcome.Reason))
			default:
				return "", fmt.Errorf("sending bundle to %s: %w", endpoint, outcome.Err)
			}
		},
		retry.Attempts(s.maxAttempts),
		retry.DelayType(s.backoffDelay),
		retry.MaxDelay(s.maxDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WithError(err).Warnf("bundle submission attempt %d/%d failed, retrying", n+1, s.maxAttempts)
		}),
	)
	s.metricsService.ObserveSubmissionAttempts(attempts)
	if err != nil {
		return "", fmt.Errorf("submitting bundle after %d attempt(s): %w", attempts, err)
	}
	return bundleID, nil
}

func (s *Submitter) backoffDelay(n uint, _ error, _ *retry.Config) time.Duration {
	return utils.JitteredBackoff(n, s.baseDelay, s.backoffFactor, s.maxDelay)
}
