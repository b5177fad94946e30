package bundler

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/solfleet/bundle-engine/internal/apptracker"
)

const (
	DefaultRetries      = 5
	DefaultTimeout      = 30 * time.Second
	DefaultAwaitTimeout = 60 * time.Second
)

// Config is the caller-facing configuration surface. Zero values for the
// optional tuning knobs defer to each component's defaults.
type Config struct {
	// RPCURL is the ledger JSON-RPC endpoint, used for outcome polling and
	// the sequential fallback path.
	RPCURL string `validate:"required,url"`
	// RelayEndpoints overrides the default Jito mainnet block-engine
	// regions.
	RelayEndpoints []string `validate:"omitempty,dive,url"`

	// Retries bounds the relay submission attempts.
	Retries int `validate:"min=1,max=20"`
	// Timeout bounds each individual network call.
	Timeout time.Duration `validate:"min=1ms"`
	// AwaitTimeout bounds the whole outcome-polling phase, independently of
	// per-call timeouts.
	AwaitTimeout time.Duration `validate:"min=1ms"`

	// UseRelay disables the atomic path entirely when false; transactions
	// go straight to sequential execution.
	UseRelay bool
	// SequentialFallback controls whether a failed or indeterminate bundle
	// is re-executed transaction by transaction.
	SequentialFallback bool
	// SkipPreflight is passed through to sequential sendTransaction calls.
	SkipPreflight bool

	// Tuning knobs, mostly for tests; zero means component default.
	BaseRetryDelay  time.Duration
	MaxRetryDelay   time.Duration
	PollInterval    time.Duration
	ConfirmInterval time.Duration
	InterTxDelay    time.Duration

	// Optional collaborators.
	Logger     *logrus.Entry
	AppTracker apptracker.AppTracker
}

// DefaultConfig returns the production defaults: relay first with five
// attempts, then sequential fallback.
func DefaultConfig(rpcURL string) Config {
	return Config{
		RPCURL:             rpcURL,
		Retries:            DefaultRetries,
		Timeout:            DefaultTimeout,
		AwaitTimeout:       DefaultAwaitTimeout,
		UseRelay:           true,
		SequentialFallback: true,
		SkipPreflight:      true,
	}
}

// setDefaults fills the numeric knobs a hand-built Config may have left
// zero. Path toggles keep their zero values; DefaultConfig sets the
// production ones.
func (c *Config) setDefaults() {
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AwaitTimeout == 0 {
		c.AwaitTimeout = DefaultAwaitTimeout
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if !c.UseRelay && !c.SequentialFallback {
		return fmt.Errorf("at least one of UseRelay and SequentialFallback must be enabled")
	}
	return nil
}
