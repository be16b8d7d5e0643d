package tezos

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RPCReader reads native balances from a Tezos node and token balances from
// a TzKT-compatible indexer.
type RPCReader struct {
	node          *resty.Client
	indexer       *resty.Client
	tokenContract string
}

// NewRPCReader builds a chain reader. indexerURL and tokenContract may be
// empty when the token asset is not served.
func NewRPCReader(nodeURL, indexerURL, tokenContract string) *RPCReader {
	r := &RPCReader{
		node:          newChainClient(nodeURL),
		tokenContract: tokenContract,
	}
	if indexerURL != "" {
		r.indexer = newChainClient(indexerURL)
	}
	return r
}

func newChainClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
}

// BalanceOf returns the minimal-unit balance of the address for the asset.
func (r *RPCReader) BalanceOf(ctx context.Context, address string, asset Asset) (int64, error) {
	if address == "" {
		return 0, fmt.Errorf("address is required")
	}
	switch asset {
	case AssetTez:
		return r.nativeBalance(ctx, address)
	case AssetUSDT:
		return r.tokenBalance(ctx, address)
	default:
		return 0, fmt.Errorf("unknown asset %q", asset)
	}
}

// nativeBalance hits the node context endpoint, which returns the mutez
// balance as a JSON-quoted string.
func (r *RPCReader) nativeBalance(ctx context.Context, address string) (int64, error) {
	resp, err := r.node.R().
		SetContext(ctx).
		Get("/chains/main/blocks/head/context/contracts/" + address + "/balance")
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("query balance: node returned HTTP %d", resp.StatusCode())
	}

	raw := strings.Trim(strings.TrimSpace(string(resp.Body())), `"`)
	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return balance, nil
}

// tokenBalance queries the indexer's token balances endpoint, selecting the
// raw balance column only.
func (r *RPCReader) tokenBalance(ctx context.Context, address string) (int64, error) {
	if r.indexer == nil || r.tokenContract == "" {
		return 0, fmt.Errorf("token balance source not configured")
	}

	var balances []string
	resp, err := r.indexer.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"account":        address,
			"token.contract": r.tokenContract,
			"select":         "balance",
			"limit":          "1",
		}).
		SetResult(&balances).
		Get("/v1/tokens/balances")
	if err != nil {
		return 0, fmt.Errorf("query token balance: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("query token balance: indexer returned HTTP %d", resp.StatusCode())
	}
	if len(balances) == 0 {
		return 0, nil
	}

	balance, err := strconv.ParseInt(balances[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", balances[0], err)
	}
	return balance, nil
}
