package tezos

import (
	"context"
	"errors"
)

// ErrPermissionDenied indicates the user rejected the permission request in
// the wallet UI.
var ErrPermissionDenied = errors.New("wallet permission denied")

// OperationHandle references a submitted chain operation and allows waiting
// for its inclusion.
type OperationHandle interface {
	// Hash returns the operation hash assigned at submission time.
	Hash() string
	// Confirmation blocks until the chain reports the operation as applied
	// and returns the final operation reference.
	Confirmation(ctx context.Context) (string, error)
}

// WalletSession is the capability provided by the user's wallet. Signing is
// always performed by the wallet itself; the gateway only requests it.
type WalletSession interface {
	// RequestPermissions prompts the wallet for access scoped to the given
	// network and returns the granted address.
	RequestPermissions(ctx context.Context, network string) (string, error)
	// Transfer asks the wallet to sign and inject a transfer of the given
	// minimal-unit amount. The call suspends until the user approves or
	// rejects in the wallet UI.
	Transfer(ctx context.Context, to string, amount int64) (OperationHandle, error)
	// ClearSession drops the active wallet pairing.
	ClearSession(ctx context.Context) error
}

// ChainReader reads balances from the chain.
type ChainReader interface {
	// BalanceOf returns the minimal-unit balance of the address for the asset.
	BalanceOf(ctx context.Context, address string, asset Asset) (int64, error)
}
