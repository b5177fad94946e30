package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ConfirmationStatus is the commitment level reported by both the block
// engine (confirmation_status) and the ledger RPC (confirmationStatus).
type ConfirmationStatus string

const (
	ProcessedStatus ConfirmationStatus = "processed"
	ConfirmedStatus ConfirmationStatus = "confirmed"
	FinalizedStatus ConfirmationStatus = "finalized"
)

// AtLeastConfirmed reports whether the status is confirmed or finalized.
func (s ConfirmationStatus) AtLeastConfirmed() bool {
	return s == ConfirmedStatus || s == FinalizedStatus
}

// RPCResponse is the JSON-RPC 2.0 envelope shared by the block engine and
// the ledger RPC.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCContext carries the slot at which an RPC result was produced.
type RPCContext struct {
	Slot uint64 `json:"slot"`
}

// RPCBundleStatus is one entry of a getBundleStatuses result.
type RPCBundleStatus struct {
	BundleID           string             `json:"bundle_id"`
	Transactions       []string           `json:"transactions"`
	Slot               uint64             `json:"slot"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
	Err                json.RawMessage    `json:"err"`
}

// okErrVariants are the raw err encodings that mean "no execution error".
var okErrVariants = [][]byte{
	[]byte(`null`),
	[]byte(`{"Ok":null}`),
	[]byte(`"Ok"`),
}

// ExecutionErr returns the execution error as a string, or "" when the
// bundle executed without error or no error has been reported yet.
func (s RPCBundleStatus) ExecutionErr() string {
	return rawExecutionErr(s.Err)
}

// RPCBundleStatusesResult is the result payload of getBundleStatuses.
type RPCBundleStatusesResult struct {
	Context RPCContext        `json:"context"`
	Value   []RPCBundleStatus `json:"value"`
}

// RPCSignatureStatus is one entry of a getSignatureStatuses result. The
// ledger returns null for signatures it has not observed, so values are
// pointers.
type RPCSignatureStatus struct {
	Slot               uint64             `json:"slot"`
	Confirmations      *uint64            `json:"confirmations"`
	Err                json.RawMessage    `json:"err"`
	ConfirmationStatus ConfirmationStatus `json:"confirmationStatus"`
}

// ExecutionErr returns the transaction's execution error as a string, or ""
// when the transaction succeeded.
func (s RPCSignatureStatus) ExecutionErr() string {
	return rawExecutionErr(s.Err)
}

// RPCSignatureStatusesResult is the result payload of getSignatureStatuses.
type RPCSignatureStatusesResult struct {
	Context RPCContext            `json:"context"`
	Value   []*RPCSignatureStatus `json:"value"`
}

func rawExecutionErr(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	for _, ok := range okErrVariants {
		if bytes.Equal(trimmed, ok) {
			return ""
		}
	}
	return string(trimmed)
}
