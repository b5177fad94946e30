package utils

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

// HTTPClient is the slice of http.Client used by the RPC clients. Requests
// carry their own context, so per-attempt deadlines are the caller's job.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type MockHTTPClient struct {
	mock.Mock
}

func (c *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := c.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

var _ HTTPClient = (*MockHTTPClient)(nil)
