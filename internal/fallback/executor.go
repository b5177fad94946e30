// Package fallback executes a bundle's transactions one at a time directly
// against the ledger when the atomic block-engine path is exhausted.
// Atomicity is lost; ordering is not.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/solfleet/bundle-engine/internal/bundle"
	"github.com/solfleet/bundle-engine/internal/ledger"
	"github.com/solfleet/bundle-engine/internal/metrics"
)

const (
	DefaultSendRetries     = 3
	DefaultSendRetryDelay  = 500 * time.Millisecond
	DefaultConfirmTimeout  = 30 * time.Second
	DefaultConfirmInterval = 2 * time.Second
	DefaultInterTxDelay    = 400 * time.Millisecond
)

// TransactionResult is the per-transaction outcome of a sequential run.
type TransactionResult struct {
	Signature solana.Signature
	Confirmed bool
	Slot      uint64
	Err       string
}

// Result accumulates every transaction's outcome in original bundle order.
// Success requires all of them confirmed.
type Result struct {
	Success bool
	Results []TransactionResult
}

func (r Result) FailedCount() int {
	failed := 0
	for _, result := range r.Results {
		if !result.Confirmed {
			failed++
		}
	}
	return failed
}

type ExecutorOptions struct {
	LedgerClient   ledger.Client
	MetricsService metrics.MetricsService
	Logger         *logrus.Entry

	SkipPreflight   bool
	SendRetries     uint
	SendRetryDelay  time.Duration
	ConfirmTimeout  time.Duration
	ConfirmInterval time.Duration
	InterTxDelay    time.Duration
}

func (o *ExecutorOptions) ValidateOptions() error {
	if o.LedgerClient == nil {
		return fmt.Errorf("ledger client cannot be nil")
	}
	if o.MetricsService == nil {
		return fmt.Errorf("metrics service cannot be nil")
	}
	return nil
}

type Executor struct {
	ledgerClient   ledger.Client
	metricsService metrics.MetricsService
	logger         *logrus.Entry

	skipPreflight   bool
	sendRetries     uint
	sendRetryDelay  time.Duration
	confirmTimeout  time.Duration
	confirmInterval time.Duration
	interTxDelay    time.Duration
}

func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if err := opts.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating executor options: %w", err)
	}
	if opts.SendRetries == 0 {
		opts.SendRetries = DefaultSendRetries
	}
	if opts.SendRetryDelay == 0 {
		opts.SendRetryDelay = DefaultSendRetryDelay
	}
	if opts.ConfirmTimeout == 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.ConfirmInterval == 0 {
		opts.ConfirmInterval = DefaultConfirmInterval
	}
	if opts.InterTxDelay == 0 {
		opts.InterTxDelay = DefaultInterTxDelay
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		ledgerClient:    opts.LedgerClient,
		metricsService:  opts.MetricsService,
		logger:          opts.Logger,
		skipPreflight:   opts.SkipPreflight,
		sendRetries:     opts.SendRetries,
		sendRetryDelay:  opts.SendRetryDelay,
		confirmTimeout:  opts.ConfirmTimeout,
		confirmInterval: opts.ConfirmInterval,
		interTxDelay:    opts.InterTxDelay,
	}, nil
}

// Execute submits every transaction in order and records each outcome,
// continuing past failures: the underlying operations can be independently
// meaningful, so partial execution is reported rather than aborted. A short
// pause between transactions keeps back-to-back submissions sharing a fee
// payer from racing each other at the ledger's ingress.
func (e *Executor) Execute(ctx context.Context, txs []bundle.SignedTransaction) Result {
	startTime := time.Now()
	defer func() {
		e.metricsService.ObserveFallbackDuration(time.Since(startTime).Seconds())
	}()

	results := make([]TransactionResult, 0, len(txs))
	for i, tx := range txs {
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.interTxDelay):
			}
		}

		result := e.executeOne(ctx, tx)
		if result.Confirmed {
			e.metricsService.IncFallbackTransactions("confirmed")
		} else {
			e.metricsService.IncFallbackTransactions("failed")
			e.logger.WithFields(logrus.Fields{
				"signature": result.Signature.String(),
				"position":  i,
			}).Warnf("sequential transaction failed: %s", result.Err)
		}
		results = append(results, result)
	}

	return Result{
		Success: allConfirmed(results),
		Results: results,
	}
}

var errNotYetConfirmed = errors.New("transaction not yet confirmed")

func (e *Executor) executeOne(ctx context.Context, tx bundle.SignedTransaction) TransactionResult {
	result := TransactionResult{Signature: tx.Signature()}

	_, err := retry.DoWithData(
		func() (solana.Signature, error) {
			return e.ledgerClient.SendTransaction(ctx, tx.Base64(), e.skipPreflight)
		},
		retry.Attempts(e.sendRetries),
		retry.Delay(e.sendRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		result.Err = fmt.Sprintf("sending transaction: %v", err)
		return result
	}

	slot, err := e.awaitConfirmation(ctx, tx.Signature())
	if err != nil {
		result.Err = fmt.Sprintf("confirming transaction: %v", err)
		return result
	}

	result.Confirmed = true
	result.Slot = slot
	return result
}

// awaitConfirmation polls the ledger until the signature reaches at least
// confirmed commitment, fails on the ledger, or the confirm timeout passes.
func (e *Executor) awaitConfirmation(ctx context.Context, signature solana.Signature) (uint64, error) {
	confirmCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	var slot uint64
	err := retry.Do(
		func() error {
			statuses, err := e.ledgerClient.GetSignatureStatuses(confirmCtx, []solana.Signature{signature})
			if err != nil {
				return fmt.Errorf("getting signature status: %w", err)
			}
			if len(statuses.Value) == 0 || statuses.Value[0] == nil {
				return errNotYetConfirmed
			}
			status := statuses.Value[0]
			if reason := status.ExecutionErr(); reason != "" {
				return retry.Unrecoverable(fmt.Errorf("transaction failed on ledger: %s", reason))
			}
			if !status.ConfirmationStatus.AtLeastConfirmed() {
				return errNotYetConfirmed
			}
			slot = status.Slot
			return nil
		},
		retry.Attempts(0),
		retry.Delay(e.confirmInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(confirmCtx),
	)
	if err != nil {
		return 0, err
	}
	return slot, nil
}

func allConfirmed(results []TransactionResult) bool {
	for _, result := range results {
		if !result.Confirmed {
			return false
		}
	}
	return true
}
