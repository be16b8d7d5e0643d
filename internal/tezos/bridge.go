package tezos

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultConfirmTimeout = 5 * time.Minute
	defaultPollInterval   = 5 * time.Second
)

// BridgeSession talks to a wallet-bridge daemon over HTTP. The daemon owns
// the Beacon pairing and the key material; this client only relays intents
// and waits for the outcome.
type BridgeSession struct {
	http           *resty.Client
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewBridgeSession builds a wallet session backed by the bridge daemon at
// baseURL. Zero durations fall back to defaults.
func NewBridgeSession(baseURL string, confirmTimeout, pollInterval time.Duration) *BridgeSession {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &BridgeSession{http: client, confirmTimeout: confirmTimeout, pollInterval: pollInterval}
}

type permissionsRequest struct {
	Network string `json:"network"`
}

type permissionsResponse struct {
	Address string `json:"address"`
	Error   string `json:"error"`
}

// RequestPermissions asks the bridge to pair with the user's wallet. The call
// suspends until the user responds in the wallet UI.
func (s *BridgeSession) RequestPermissions(ctx context.Context, network string) (string, error) {
	var out permissionsResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(permissionsRequest{Network: network}).
		SetResult(&out).
		SetError(&out).
		Post("/permissions")
	if err != nil {
		return "", fmt.Errorf("request permissions: %w", err)
	}
	if resp.StatusCode() == http.StatusForbidden {
		return "", ErrPermissionDenied
	}
	if resp.IsError() {
		return "", fmt.Errorf("request permissions: %s", bridgeError(resp, out.Error))
	}
	if out.Address == "" {
		return "", fmt.Errorf("request permissions: bridge returned no address")
	}
	return out.Address, nil
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Mutez  bool   `json:"mutez"`
}

type transferResponse struct {
	OpHash string `json:"opHash"`
	Error  string `json:"error"`
}

// Transfer relays a signing request to the wallet and returns a handle for
// the injected operation.
func (s *BridgeSession) Transfer(ctx context.Context, to string, amount int64) (OperationHandle, error) {
	var out transferResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(transferRequest{To: to, Amount: amount, Mutez: true}).
		SetResult(&out).
		SetError(&out).
		Post("/transfer")
	if err != nil {
		return nil, fmt.Errorf("submit transfer: %w", err)
	}
	if resp.StatusCode() == http.StatusForbidden {
		return nil, ErrPermissionDenied
	}
	if resp.IsError() {
		return nil, fmt.Errorf("submit transfer: %s", bridgeError(resp, out.Error))
	}
	if out.OpHash == "" {
		return nil, fmt.Errorf("submit transfer: bridge returned no operation hash")
	}
	return &bridgeHandle{session: s, hash: out.OpHash}, nil
}

// ClearSession removes the active pairing on the bridge.
func (s *BridgeSession) ClearSession(ctx context.Context) error {
	resp, err := s.http.R().SetContext(ctx).Delete("/session")
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("clear session: %s", bridgeError(resp, ""))
	}
	return nil
}

type operationStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type bridgeHandle struct {
	session *BridgeSession
	hash    string
}

func (h *bridgeHandle) Hash() string { return h.hash }

// Confirmation polls the bridge until the operation is applied or fails. The
// poll loop is bounded by the session's confirmation timeout.
func (h *bridgeHandle) Confirmation(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.session.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(h.session.pollInterval)
	defer ticker.Stop()

	for {
		var out operationStatus
		resp, err := h.session.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetError(&out).
			Get("/operations/" + h.hash)
		if err != nil {
			return "", fmt.Errorf("poll confirmation: %w", err)
		}
		if resp.IsError() {
			return "", fmt.Errorf("poll confirmation: %s", bridgeError(resp, out.Error))
		}

		switch out.Status {
		case "applied":
			return h.hash, nil
		case "failed", "backtracked":
			msg := out.Error
			if msg == "" {
				msg = out.Status
			}
			return "", fmt.Errorf("operation %s: %s", h.hash, msg)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("await confirmation of %s: %w", h.hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func bridgeError(resp *resty.Response, msg string) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("bridge returned HTTP %d", resp.StatusCode())
}
