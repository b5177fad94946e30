package relay

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/solfleet/bundle-engine/internal/entities"
)

type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) SendBundle(ctx context.Context, endpoint string, encodedTxs []string) SubmitOutcome {
	args := m.Called(ctx, endpoint, encodedTxs)
	return args.Get(0).(SubmitOutcome)
}

func (m *MockClient) GetBundleStatuses(ctx context.Context, endpoint string, bundleIDs []string) (entities.RPCBundleStatusesResult, error) {
	args := m.Called(ctx, endpoint, bundleIDs)
	return args.Get(0).(entities.RPCBundleStatusesResult), args.Error(1)
}
