// Package bundletest builds minimal valid signed transactions for tests.
package bundletest

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/solfleet/bundle-engine/internal/bundle"
)

// Transaction returns a minimal legacy transaction carrying a deterministic
// fake signature derived from seed.
func Transaction(t testing.TB, seed byte) bundle.SignedTransaction {
	t.Helper()

	var sig solana.Signature
	for i := range sig {
		sig[i] = seed
	}
	var blockhash solana.Hash
	blockhash[0] = seed

	tx := &solana.Transaction{
		Signatures: []solana.Signature{sig},
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{
				solana.NewWallet().PublicKey(),
				solana.SystemProgramID,
			},
			RecentBlockhash: blockhash,
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1},
			},
		},
	}

	signed, err := bundle.FromTransaction(tx)
	require.NoError(t, err)
	return signed
}

// Bundle returns a bundle of n transactions with seeds 1..n.
func Bundle(t testing.TB, n int) bundle.Bundle {
	t.Helper()

	txs := make([]bundle.SignedTransaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, Transaction(t, byte(i+1)))
	}
	b, err := bundle.New(txs...)
	require.NoError(t, err)
	return b
}
