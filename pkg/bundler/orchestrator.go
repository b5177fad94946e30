package bundler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/solfleet/bundle-engine/internal/apptracker"
	"github.com/solfleet/bundle-engine/internal/apptracker/dryrun"
	"github.com/solfleet/bundle-engine/internal/bundle"
	"github.com/solfleet/bundle-engine/internal/endpoints"
	"github.com/solfleet/bundle-engine/internal/fallback"
	"github.com/solfleet/bundle-engine/internal/ledger"
	"github.com/solfleet/bundle-engine/internal/metrics"
	"github.com/solfleet/bundle-engine/internal/relay"
	"github.com/solfleet/bundle-engine/internal/tracker"
)

// Method records which execution path produced the final result.
type Method string

const (
	// MethodBundle means the atomic relay path landed the bundle.
	MethodBundle Method = "BUNDLE"
	// MethodSequential means transactions were executed one by one against
	// the ledger RPC.
	MethodSequential Method = "SEQUENTIAL"
	// MethodNone means no execution path completed.
	MethodNone Method = "NONE"
)

// ExecutionResult is the terminal report for one bundle execution.
type ExecutionResult struct {
	Success    bool
	Method     Method
	Signatures []solana.Signature

	// BundleID is set when the block engine accepted the bundle, even if it
	// later failed to land.
	BundleID string
	// BundleOutcome is set when the relay path reached the tracking phase.
	BundleOutcome *tracker.Outcome
	// TransactionResults is set when the sequential path ran.
	TransactionResults []fallback.TransactionResult

	Err error
}

// Consumer-side views of the three execution phases, narrowed so tests can
// stub them without standing up the full network stack.
type bundleSubmitter interface {
	Submit(ctx context.Context, b bundle.Bundle) (string, error)
}

type outcomeTracker interface {
	AwaitOutcome(ctx context.Context, bundleID string, signatures []solana.Signature) tracker.Outcome
}

type sequentialExecutor interface {
	Execute(ctx context.Context, txs []bundle.SignedTransaction) fallback.Result
}

// Orchestrator drives a single bundle through submission, outcome tracking,
// and the sequential fallback. The flow is strictly linear: once a phase is
// left it is never re-entered.
type Orchestrator struct {
	cfg            Config
	submitter      bundleSubmitter
	tracker        outcomeTracker
	executor       sequentialExecutor
	metricsService metrics.MetricsService
	appTracker     apptracker.AppTracker
	logger         *logrus.Entry
}

// NewOrchestrator wires the full network stack from cfg: one shared HTTP
// client, a relay submitter over the configured (or default Jito) endpoints,
// a dual-oracle tracker, and the sequential executor.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	appTracker := cfg.AppTracker
	if appTracker == nil {
		appTracker = &dryrun.DryRunTracker{}
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	metricsService := metrics.NewMetricsService()

	pool, err := endpoints.NewPool(cfg.RelayEndpoints...)
	if err != nil {
		return nil, fmt.Errorf("building endpoint pool: %w", err)
	}
	relayClient, err := relay.NewClient(httpClient, metricsService)
	if err != nil {
		return nil, fmt.Errorf("building relay client: %w", err)
	}
	submitter, err := relay.NewSubmitter(relay.SubmitterOptions{
		Client:            relayClient,
		EndpointPool:      pool,
		MetricsService:    metricsService,
		Logger:            logger,
		MaxAttempts:       uint(cfg.Retries),
		PerAttemptTimeout: cfg.Timeout,
		BaseDelay:         cfg.BaseRetryDelay,
		MaxDelay:          cfg.MaxRetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("building submitter: %w", err)
	}

	ledgerClient, err := ledger.NewClient(cfg.RPCURL, httpClient, metricsService)
	if err != nil {
		return nil, fmt.Errorf("building ledger client: %w", err)
	}
	trk, err := tracker.NewTracker(tracker.TrackerOptions{
		RelayClient:    relayClient,
		LedgerClient:   ledgerClient,
		EndpointPool:   pool,
		MetricsService: metricsService,
		Logger:         logger,
		PollInterval:   cfg.PollInterval,
		PollTimeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("building tracker: %w", err)
	}
	executor, err := fallback.NewExecutor(fallback.ExecutorOptions{
		LedgerClient:    ledgerClient,
		MetricsService:  metricsService,
		Logger:          logger,
		SkipPreflight:   cfg.SkipPreflight,
		SendRetryDelay:  cfg.BaseRetryDelay,
		ConfirmInterval: cfg.ConfirmInterval,
		InterTxDelay:    cfg.InterTxDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("building fallback executor: %w", err)
	}

	return &Orchestrator{
		cfg:            cfg,
		submitter:      submitter,
		tracker:        trk,
		executor:       executor,
		metricsService: metricsService,
		appTracker:     appTracker,
		logger:         logger,
	}, nil
}

// MetricsService exposes the orchestrator's registry so callers can mount it
// on a /metrics handler.
func (o *Orchestrator) MetricsService() metrics.MetricsService {
	return o.metricsService
}

// Execute runs the bundle to a terminal result. The relay path is tried
// first (unless disabled); a rejected, exhausted, failed, or indeterminate
// bundle falls through to sequential execution when enabled. A bundle that
// landed atomically never reaches the fallback.
func (o *Orchestrator) Execute(ctx context.Context, b bundle.Bundle) ExecutionResult {
	result := ExecutionResult{
		Method:     MethodNone,
		Signatures: b.Signatures(),
	}

	if !o.cfg.UseRelay {
		return o.runSequential(ctx, b, result)
	}

	bundleID, err := o.submitter.Submit(ctx, b)
	if err != nil {
		o.logger.WithError(err).Warn("relay submission did not succeed")
		result.Err = err
		return o.runSequential(ctx, b, result)
	}
	result.BundleID = bundleID

	awaitCtx, cancel := context.WithTimeout(ctx, o.cfg.AwaitTimeout)
	defer cancel()
	outcome := o.tracker.AwaitOutcome(awaitCtx, bundleID, b.Signatures())
	result.BundleOutcome = &outcome

	if outcome.State == tracker.StateLanded {
		result.Success = true
		result.Method = MethodBundle
		result.Err = nil
		return result
	}

	o.logger.WithFields(logrus.Fields{
		"bundle_id": bundleID,
		"state":     outcome.State,
		"error":     outcome.Err,
	}).Warn("bundle did not land")
	result.Err = fmt.Errorf("bundle %s did not land: state=%s err=%q", bundleID, outcome.State, outcome.Err)
	return o.runSequential(ctx, b, result)
}

func (o *Orchestrator) runSequential(ctx context.Context, b bundle.Bundle, result ExecutionResult) ExecutionResult {
	if !o.cfg.SequentialFallback {
		if result.Err == nil {
			result.Err = fmt.Errorf("relay path disabled and sequential fallback not enabled")
		}
		return result
	}

	execResult := o.executor.Execute(ctx, b.Transactions())
	result.Method = MethodSequential
	result.TransactionResults = execResult.Results
	result.Success = execResult.Success
	if execResult.Success {
		result.Err = nil
		return result
	}

	err := fmt.Errorf("sequential execution left %d of %d transaction(s) unlanded", execResult.FailedCount(), b.Len())
	if result.Err != nil {
		err = fmt.Errorf("%w (relay path: %v)", err, result.Err)
	}
	result.Err = err
	o.appTracker.CaptureException(err)
	return result
}
