package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/solfleet/bundle-engine/internal/entities"
)

// OutcomeKind tags a classified sendBundle response.
type OutcomeKind int

const (
	// OutcomeAccepted means the engine acknowledged the bundle and returned
	// an id. It does not imply landing.
	OutcomeAccepted OutcomeKind = iota
	// OutcomeRejected is a terminal rejection; retrying the same bundle
	// cannot succeed.
	OutcomeRejected
	// OutcomeTransport covers transient conditions worth retrying on
	// another endpoint: network errors, timeouts, rate limits, 5xx and
	// stale-state rejections.
	OutcomeTransport
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "transport"
	}
}

// SubmitOutcome is the classified result of one sendBundle attempt.
// Exactly one of BundleID, Reason, Err is populated, per Kind.
type SubmitOutcome struct {
	Kind     OutcomeKind
	BundleID string
	Reason   string
	Err      error
}

// nonRetryableMarkers flag engine rejections that will recur identically on
// every endpoint. Stale-state messages (e.g. blockhash not found) are
// deliberately absent: state can catch up between attempts.
var nonRetryableMarkers = []string{
	"invalid signature",
	"signature verification",
	"insufficient funds",
	"account not found",
	"account does not exist",
	"invalid transaction",
	"invalid params",
	"transaction too large",
}

// ClassifySendBundle maps the raw pieces of a sendBundle exchange onto the
// submit outcome. This is the single place response shapes are interpreted.
func ClassifySendBundle(result json.RawMessage, rpcErr *entities.RPCError, transportErr error) SubmitOutcome {
	if transportErr != nil {
		var statusErr *HTTPStatusError
		if errors.As(transportErr, &statusErr) && !statusErr.Retryable() {
			return SubmitOutcome{Kind: OutcomeRejected, Reason: statusErr.Error()}
		}
		return SubmitOutcome{Kind: OutcomeTransport, Err: transportErr}
	}

	if rpcErr != nil {
		if isNonRetryableMessage(rpcErr.Message) {
			return SubmitOutcome{Kind: OutcomeRejected, Reason: rpcErr.Error()}
		}
		return SubmitOutcome{Kind: OutcomeTransport, Err: rpcErr}
	}

	var bundleID string
	if err := json.Unmarshal(result, &bundleID); err != nil || bundleID == "" {
		return SubmitOutcome{Kind: OutcomeTransport, Err: fmt.Errorf("malformed sendBundle result %s", string(result))}
	}
	return SubmitOutcome{Kind: OutcomeAccepted, BundleID: bundleID}
}

func isNonRetryableMessage(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range nonRetryableMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
