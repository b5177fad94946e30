// Package endpoints holds the set of block-engine relay endpoints and hands
// out randomized submission orders.
package endpoints

import (
	"errors"
	"math/rand/v2"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultEndpoints are the public Jito mainnet block-engine regions.
var DefaultEndpoints = []string{
	"https://mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://frankfurt.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://london.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://ny.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://tokyo.mainnet.block-engine.jito.wtf/api/v1/bundles",
}

var ErrEmptyEndpoint = errors.New("endpoint URL cannot be empty")

// Pool is a read-only set of relay endpoints. Endpoint health is not
// tracked; load is spread by shuffling instead of keeping rotation state.
type Pool struct {
	endpoints []string
}

// NewPool builds a pool from the given URLs, de-duplicated in input order.
// With no URLs it falls back to the Jito mainnet defaults.
func NewPool(urls ...string) (*Pool, error) {
	if len(urls) == 0 {
		urls = DefaultEndpoints
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	deduped := make([]string, 0, len(urls))
	for _, url := range urls {
		if url == "" {
			return nil, ErrEmptyEndpoint
		}
		if seen.Add(url) {
			deduped = append(deduped, url)
		}
	}
	return &Pool{endpoints: deduped}, nil
}

// ShuffledOrder returns every endpoint exactly once in a fresh random
// permutation. No rotation state is kept between calls.
func (p *Pool) ShuffledOrder() []string {
	order := make([]string, len(p.endpoints))
	copy(order, p.endpoints)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// StatusURL is the endpoint used for getBundleStatuses queries. Bundle ids
// are propagated across regions, so the first configured endpoint serves.
func (p *Pool) StatusURL() string {
	return p.endpoints[0]
}

func (p *Pool) Size() int {
	return len(p.endpoints)
}
