// Package ledgerapi is the HTTP client for the backend ledger service. The
// service is the system of record for confirmed deposits and holds the
// signing capability for withdrawals; this package never sees key material.
package ledgerapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/tezgate/tezgate/internal/tezos"
)

// DepositRecord notifies the ledger of a confirmed on-chain deposit. Amount
// is denominated in display units.
type DepositRecord struct {
	AccountID   string  `json:"accountId"`
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	OpHash      string  `json:"opHash"`
}

type withdrawRequest struct {
	ToAddress string  `json:"toAddress"`
	Amount    float64 `json:"amount"`
}

type transferEnvelope struct {
	Success bool   `json:"success"`
	OpHash  string `json:"opHash"`
	Error   string `json:"error"`
}

type balanceEnvelope struct {
	Success bool   `json:"success"`
	Balance string `json:"balance"`
	Error   string `json:"error"`
}

// Client calls the ledger service over HTTP/JSON.
type Client struct {
	http *resty.Client
}

// NewClient builds a ledger client for the service at baseURL.
func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: client}
}

// RecordDeposit records a confirmed deposit and returns the ledger's
// operation reference.
func (c *Client) RecordDeposit(ctx context.Context, rec DepositRecord) (string, error) {
	return c.postTransfer(ctx, "/deposit-tez", rec)
}

// Withdraw asks the ledger service to execute a backend-custodied withdrawal
// of the given display-unit amount to the address.
func (c *Client) Withdraw(ctx context.Context, asset tezos.Asset, toAddress string, amount float64) (string, error) {
	endpoint := "/withdraw-tez"
	if asset == tezos.AssetUSDT {
		endpoint = "/withdraw-usdt"
	}
	return c.postTransfer(ctx, endpoint, withdrawRequest{ToAddress: toAddress, Amount: amount})
}

func (c *Client) postTransfer(ctx context.Context, endpoint string, body any) (string, error) {
	var out transferEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("ledger %s: %w", endpoint, err)
	}
	// Non-2xx means failure regardless of the body content.
	if resp.IsError() || !out.Success {
		return "", fmt.Errorf("ledger %s: %s", endpoint, envelopeError(resp, out.Error))
	}
	return out.OpHash, nil
}

// Balance returns the ledger's view of the address balance in display units.
func (c *Client) Balance(ctx context.Context, address string, asset tezos.Asset) (decimal.Decimal, error) {
	endpoint := "/balance/" + address
	if asset == tezos.AssetUSDT {
		endpoint = "/balanceUSDT/" + address
	}

	var out balanceEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get(endpoint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger balance: %w", err)
	}
	if resp.IsError() || !out.Success {
		return decimal.Zero, fmt.Errorf("ledger balance: %s", envelopeError(resp, out.Error))
	}

	balance, err := decimal.NewFromString(out.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ledger balance %q: %w", out.Balance, err)
	}
	return balance, nil
}

func envelopeError(resp *resty.Response, msg string) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode())
}
