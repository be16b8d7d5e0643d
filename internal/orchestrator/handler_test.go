package orchestrator

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newHandlerApp(t *testing.T, f fixture) *fiber.App {
	t.Helper()

	h := NewHandler(f.svc)
	app := fiber.New()
	app.Post("/session/connect", h.Connect)
	app.Post("/session/disconnect", h.Disconnect)
	app.Get("/session", h.Session)
	app.Get("/balance/:asset", h.Balance)
	app.Post("/deposit", h.Deposit)
	app.Post("/withdraw", h.Withdraw)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return resp.StatusCode, out
}

func TestHandlerDeposit(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	status, out := postJSON(t, app, "/deposit", `{"amount":"1"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d body=%v", status, out)
	}
	if out["success"] != true || out["operation_reference"] != "opFAKE123" {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestHandlerDepositErrorStatuses(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	cases := []struct {
		body   string
		status int
	}{
		{`{"amount":"bad"}`, fiber.StatusBadRequest}, // invalid amount
		{`{"amount":"100"}`, fiber.StatusBadRequest}, // insufficient balance
	}
	for _, tc := range cases {
		status, out := postJSON(t, app, "/deposit", tc.body)
		if status != tc.status {
			t.Fatalf("deposit %s: status = %d, want %d", tc.body, status, tc.status)
		}
		if out["success"] != false || out["error"] == "" {
			t.Fatalf("deposit %s: unexpected body %v", tc.body, out)
		}
	}
}

func TestHandlerDepositNotConnected(t *testing.T) {
	svc := New(Config{Network: "ghostnet"}, Deps{
		Wallet: &fakeWallet{address: testAddress},
		Chain:  &fakeChain{},
		Ledger: &fakeLedger{},
	})
	app := newHandlerApp(t, fixture{svc: svc})

	status, _ := postJSON(t, app, "/deposit", `{"amount":"1"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
}

func TestHandlerWithdrawDefaultsToTez(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	status, out := postJSON(t, app, "/withdraw", `{"amount":"2"}`)
	if status != fiber.StatusOK || out["success"] != true {
		t.Fatalf("status = %d body=%v", status, out)
	}
	if f.ledger.lastAsset != "tez" {
		t.Fatalf("expected tez withdrawal, got %s", f.ledger.lastAsset)
	}
}

func TestHandlerWithdrawRejectsUnknownAsset(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	req := httptest.NewRequest("POST", "/withdraw", strings.NewReader(`{"amount":"2","asset":"doge"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if f.ledger.withdrawCalls != 0 {
		t.Fatalf("expected no ledger calls, got %d", f.ledger.withdrawCalls)
	}
}

func TestHandlerSessionReportsState(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	resp, err := app.Test(httptest.NewRequest("GET", "/session", nil), -1)
	if err != nil {
		t.Fatalf("GET /session: %v", err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["connected"] != true || out["address"] != testAddress || out["phase"] != string(PhaseIdle) {
		t.Fatalf("unexpected session body: %v", out)
	}
	if out["last_outcome"] != string(PhaseIdle) {
		t.Fatalf("last_outcome = %v, want idle", out["last_outcome"])
	}
	balances, ok := out["balances"].(map[string]any)
	if !ok || balances["tez"] != "5" {
		t.Fatalf("unexpected balances: %v", out["balances"])
	}
}

func TestHandlerSessionReportsLastOutcome(t *testing.T) {
	f := newFixture(t, 5_000_000)
	app := newHandlerApp(t, f)

	if status, _ := postJSON(t, app, "/deposit", `{"amount":"1"}`); status != fiber.StatusOK {
		t.Fatalf("deposit status = %d", status)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/session", nil), -1)
	if err != nil {
		t.Fatalf("GET /session: %v", err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["phase"] != string(PhaseIdle) || out["last_outcome"] != string(PhaseSettled) {
		t.Fatalf("phase=%v last_outcome=%v, want idle/settled", out["phase"], out["last_outcome"])
	}
}
