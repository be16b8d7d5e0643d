package ledgerapi

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tezgate/tezgate/internal/tezos"
)

// Reader adapts the ledger client's balance endpoints to the chain reader
// contract, for deployments that trust the backend's view over a node RPC.
type Reader struct {
	client *Client
}

// NewReader wraps the client as a tezos.ChainReader.
func NewReader(client *Client) *Reader {
	return &Reader{client: client}
}

// BalanceOf converts the ledger's display-unit balance to minimal units.
func (r *Reader) BalanceOf(ctx context.Context, address string, asset tezos.Asset) (int64, error) {
	balance, err := r.client.Balance(ctx, address, asset)
	if err != nil {
		return 0, err
	}
	return balance.Mul(decimal.New(1, 6)).Floor().IntPart(), nil
}
