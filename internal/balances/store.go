// Package balances caches the last known on-chain balance per (address,
// asset) pair. The cache is only ever written after a chain query; a failed
// refresh leaves the previous value in place.
package balances

import (
	"context"
	"sync"

	"github.com/tezgate/tezgate/internal/tezos"
)

// Store holds cached minimal-unit balances.
type Store interface {
	// Get returns the cached balance and whether a value was present.
	Get(ctx context.Context, address string, asset tezos.Asset) (int64, bool, error)
	// Set replaces the cached balance.
	Set(ctx context.Context, address string, asset tezos.Asset, amount int64) error
	// Clear drops every cached balance for the address.
	Clear(ctx context.Context, address string) error
}

type memoryStore struct {
	mu       sync.RWMutex
	balances map[string]int64
}

// NewMemoryStore constructs an in-process balance cache.
func NewMemoryStore() Store {
	return &memoryStore{balances: make(map[string]int64)}
}

func cacheKey(address string, asset tezos.Asset) string {
	return string(asset) + ":" + address
}

func (s *memoryStore) Get(_ context.Context, address string, asset tezos.Asset) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amount, ok := s.balances[cacheKey(address, asset)]
	return amount, ok, nil
}

func (s *memoryStore) Set(_ context.Context, address string, asset tezos.Asset, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[cacheKey(address, asset)] = amount
	return nil
}

func (s *memoryStore) Clear(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, asset := range tezos.Assets() {
		delete(s.balances, cacheKey(address, asset))
	}
	return nil
}
