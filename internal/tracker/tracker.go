// Package tracker polls the block engine and the ledger until a bundle's
// terminal outcome is known or the caller's deadline passes.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/solfleet/bundle-engine/internal/endpoints"
	"github.com/solfleet/bundle-engine/internal/ledger"
	"github.com/solfleet/bundle-engine/internal/metrics"
	"github.com/solfleet/bundle-engine/internal/relay"
)

type State string

const (
	StatePending State = "PENDING"
	StateLanded  State = "LANDED"
	StateFailed  State = "FAILED"
	StateUnknown State = "UNKNOWN"
)

// Outcome is the merged observation from both oracles. Unknown means the
// deadline passed with no terminal signal; the bundle may still land later,
// so callers must not treat it as a reversal.
type Outcome struct {
	State State
	Slot  uint64
	Err   string
}

func (o Outcome) Terminal() bool {
	return o.State == StateLanded || o.State == StateFailed
}

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 10 * time.Second
)

type TrackerOptions struct {
	RelayClient    relay.Client
	LedgerClient   ledger.Client
	EndpointPool   *endpoints.Pool
	MetricsService metrics.MetricsService
	Logger         *logrus.Entry

	PollInterval time.Duration
	PollTimeout  time.Duration
}

func (o *TrackerOptions) ValidateOptions() error {
	if o.RelayClient == nil {
		return fmt.Errorf("relay client cannot be nil")
	}
	if o.LedgerClient == nil {
		return fmt.Errorf("ledger client cannot be nil")
	}
	if o.EndpointPool == nil {
		return fmt.Errorf("endpoint pool cannot be nil")
	}
	if o.MetricsService == nil {
		return fmt.Errorf("metrics service cannot be nil")
	}
	return nil
}

// Tracker watches one bundle at a time. The engine's own status endpoint can
// lag behind a landing the ledger already reflects (and vice versa), so both
// are polled and either one's terminal signal wins.
type Tracker struct {
	relayClient    relay.Client
	ledgerClient   ledger.Client
	pool           *endpoints.Pool
	metricsService metrics.MetricsService
	logger         *logrus.Entry
	workers        pond.Pool

	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewTracker(opts TrackerOptions) (*Tracker, error) {
	if err := opts.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating tracker options: %w", err)
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollTimeout == 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tracker{
		relayClient:    opts.RelayClient,
		ledgerClient:   opts.LedgerClient,
		pool:           opts.EndpointPool,
		metricsService: opts.MetricsService,
		logger:         opts.Logger,
		workers:        pond.NewPool(0),
		pollInterval:   opts.PollInterval,
		pollTimeout:    opts.PollTimeout,
	}, nil
}

// AwaitOutcome polls both oracles at a fixed interval until one reports a
// terminal state or ctx's deadline passes. Individual poll failures only
// skip a tick; they never consume the deadline early.
func (t *Tracker) AwaitOutcome(ctx context.Context, bundleID string, signatures []solana.Signature) Outcome {
	startTime := time.Now()
	defer func() {
		t.metricsService.ObserveOutcomeWaitDuration(time.Since(startTime).Seconds())
	}()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		outcome := t.pollOnce(ctx, bundleID, signatures)
		if outcome.Terminal() {
			t.metricsService.IncBundleOutcome(string(outcome.State))
			return outcome
		}

		select {
		case <-ctx.Done():
			t.metricsService.IncBundleOutcome(string(StateUnknown))
			return Outcome{
				State: StateUnknown,
				Err:   fmt.Sprintf("no terminal bundle state observed before deadline: %v", ctx.Err()),
			}
		case <-ticker.C:
		}
	}
}

// pollOnce queries both oracles concurrently and merges their observations.
// The engine's signal is checked first, matching its role as the submission
// venue; a terminal signal from either source is authoritative.
func (t *Tracker) pollOnce(ctx context.Context, bundleID string, signatures []solana.Signature) Outcome {
	pollCtx, cancel := context.WithTimeout(ctx, t.pollTimeout)
	defer cancel()

	var relayOutcome, ledgerOutcome Outcome
	group := t.workers.NewGroupContext(pollCtx)
	group.Submit(func() {
		relayOutcome = t.queryRelay(pollCtx, bundleID)
	})
	group.Submit(func() {
		ledgerOutcome = t.queryLedger(pollCtx, signatures)
	})
	if err := group.Wait(); err != nil {
		t.logger.WithError(err).Warn("bundle status poll tick did not complete")
	}

	if relayOutcome.Terminal() {
		return relayOutcome
	}
	if ledgerOutcome.Terminal() {
		return ledgerOutcome
	}
	return Outcome{State: StatePending}
}

func (t *Tracker) queryRelay(ctx context.Context, bundleID string) Outcome {
	result, err := t.relayClient.GetBundleStatuses(ctx, t.pool.StatusURL(), []string{bundleID})
	if err != nil {
		t.logger.WithError(err).WithField("bundle_id", bundleID).Warn("getBundleStatuses poll failed")
		return Outcome{State: StatePending}
	}

	for _, status := range result.Value {
		if status.BundleID != bundleID {
			continue
		}
		if reason := status.ExecutionErr(); reason != "" {
			return Outcome{State: StateFailed, Slot: status.Slot, Err: reason}
		}
		if status.ConfirmationStatus.AtLeastConfirmed() {
			return Outcome{State: StateLanded, Slot: status.Slot}
		}
	}
	return Outcome{State: StatePending}
}

func (t *Tracker) queryLedger(ctx context.Context, signatures []solana.Signature) Outcome {
	result, err := t.ledgerClient.GetSignatureStatuses(ctx, signatures)
	if err != nil {
		t.logger.WithError(err).Warn("getSignatureStatuses poll failed")
		return Outcome{State: StatePending}
	}
	if len(result.Value) != len(signatures) {
		t.logger.Warnf("getSignatureStatuses returned %d statuses for %d signatures", len(result.Value), len(signatures))
		return Outcome{State: StatePending}
	}

	// An explicit error anywhere in the batch is terminal even when other
	// signatures are still unobserved, so scan the whole batch before
	// concluding Pending.
	allConfirmed := true
	var highestSlot uint64
	for _, status := range result.Value {
		if status == nil {
			// Signature not yet observed by the ledger.
			allConfirmed = false
			continue
		}
		if reason := status.ExecutionErr(); reason != "" {
			return Outcome{State: StateFailed, Slot: status.Slot, Err: reason}
		}
		if !status.ConfirmationStatus.AtLeastConfirmed() {
			allConfirmed = false
			continue
		}
		if status.Slot > highestSlot {
			highestSlot = status.Slot
		}
	}
	if allConfirmed {
		return Outcome{State: StateLanded, Slot: highestSlot}
	}
	return Outcome{State: StatePending}
}
