package tezos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StaticSession simulates a wallet that approves every request. It backs dev
// mode when no wallet bridge is configured.
type StaticSession struct {
	address string
}

// NewStaticSession builds a simulated wallet session for the given address.
// An empty address yields a synthetic one.
func NewStaticSession(address string) *StaticSession {
	if address == "" {
		address = fmt.Sprintf("tz1%s", uuid.NewString()[:8])
	}
	return &StaticSession{address: address}
}

// RequestPermissions grants access immediately.
func (s *StaticSession) RequestPermissions(_ context.Context, _ string) (string, error) {
	return s.address, nil
}

// Transfer approves the transfer with a synthetic operation hash.
func (s *StaticSession) Transfer(_ context.Context, _ string, amount int64) (OperationHandle, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return staticHandle{hash: "oo" + uuid.NewString()}, nil
}

// ClearSession always succeeds.
func (s *StaticSession) ClearSession(_ context.Context) error {
	return nil
}

type staticHandle struct {
	hash string
}

func (h staticHandle) Hash() string { return h.hash }

func (h staticHandle) Confirmation(_ context.Context) (string, error) {
	return h.hash, nil
}
