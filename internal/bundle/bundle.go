// Package bundle wraps pre-signed Solana transactions and groups them into
// ordered bundles for atomic submission to a block engine.
package bundle

import (
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// MaxTransactions is the block engine's hard cap on transactions per bundle.
const MaxTransactions = 5

var (
	ErrEmptyBundle         = errors.New("bundle must contain at least one transaction")
	ErrTooManyTransactions = fmt.Errorf("bundle cannot contain more than %d transactions", MaxTransactions)
	ErrEmptyPayload        = errors.New("transaction payload is empty")
	ErrMissingSignature    = errors.New("transaction has no signature")
)

// SignedTransaction is an immutable, pre-signed transaction payload together
// with its identifier (the fee payer's signature). The identifier is derived
// from the payload, so re-wrapping the same bytes always yields the same
// signature.
type SignedTransaction struct {
	raw       []byte
	signature solana.Signature
}

// NewSignedTransaction wraps raw signed transaction bytes. It fails on
// malformed payloads or payloads with no signature; those are caller errors
// and are never retried.
func NewSignedTransaction(raw []byte) (SignedTransaction, error) {
	if len(raw) == 0 {
		return SignedTransaction{}, ErrEmptyPayload
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return SignedTransaction{}, fmt.Errorf("decoding transaction: %w", err)
	}
	if len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		return SignedTransaction{}, ErrMissingSignature
	}
	payload := make([]byte, len(raw))
	copy(payload, raw)
	return SignedTransaction{raw: payload, signature: tx.Signatures[0]}, nil
}

// FromTransaction wraps an already-built solana transaction.
func FromTransaction(tx *solana.Transaction) (SignedTransaction, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return SignedTransaction{}, fmt.Errorf("serializing transaction: %w", err)
	}
	return NewSignedTransaction(raw)
}

// Signature returns the transaction's identifier.
func (t SignedTransaction) Signature() solana.Signature {
	return t.signature
}

// Bytes returns a copy of the raw signed payload.
func (t SignedTransaction) Bytes() []byte {
	payload := make([]byte, len(t.raw))
	copy(payload, t.raw)
	return payload
}

// Base58 returns the payload in the block engine's sendBundle encoding.
func (t SignedTransaction) Base58() string {
	return base58.Encode(t.raw)
}

// Base64 returns the payload in the ledger's sendTransaction encoding.
func (t SignedTransaction) Base64() string {
	return base64.StdEncoding.EncodeToString(t.raw)
}

// Bundle is an ordered sequence of 1 to MaxTransactions signed transactions.
// The order is semantically significant and is preserved through every
// execution path.
type Bundle struct {
	txs []SignedTransaction
}

// New builds a Bundle, enforcing the size bounds at construction time,
// before any network traffic.
func New(txs ...SignedTransaction) (Bundle, error) {
	if len(txs) == 0 {
		return Bundle{}, ErrEmptyBundle
	}
	if len(txs) > MaxTransactions {
		return Bundle{}, ErrTooManyTransactions
	}
	ordered := make([]SignedTransaction, len(txs))
	copy(ordered, txs)
	return Bundle{txs: ordered}, nil
}

func (b Bundle) Len() int {
	return len(b.txs)
}

// Transactions returns the bundle's transactions in their original order.
func (b Bundle) Transactions() []SignedTransaction {
	ordered := make([]SignedTransaction, len(b.txs))
	copy(ordered, b.txs)
	return ordered
}

// Signatures returns the per-transaction identifiers in bundle order.
func (b Bundle) Signatures() []solana.Signature {
	sigs := make([]solana.Signature, len(b.txs))
	for i, tx := range b.txs {
		sigs[i] = tx.Signature()
	}
	return sigs
}

// EncodeBase58 serializes the bundle into the sendBundle wire format,
// preserving input order exactly.
func (b Bundle) EncodeBase58() []string {
	encoded := make([]string, len(b.txs))
	for i, tx := range b.txs {
		encoded[i] = tx.Base58()
	}
	return encoded
}
