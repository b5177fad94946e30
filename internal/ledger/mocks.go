package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"

	"github.com/solfleet/bundle-engine/internal/entities"
)

type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) SendTransaction(ctx context.Context, txBase64 string, skipPreflight bool) (solana.Signature, error) {
	args := m.Called(ctx, txBase64, skipPreflight)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, signatures []solana.Signature) (entities.RPCSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	return args.Get(0).(entities.RPCSignatureStatusesResult), args.Error(1)
}
