package tezos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newBridge(srvURL string) *BridgeSession {
	return NewBridgeSession(srvURL, time.Second, 5*time.Millisecond)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBridgeRequestPermissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/permissions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["network"] != "ghostnet" {
			t.Errorf("unexpected network %q", req["network"])
		}
		writeJSON(w, http.StatusOK, map[string]string{"address": "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"})
	}))
	defer srv.Close()

	address, err := newBridge(srv.URL).RequestPermissions(context.Background(), "ghostnet")
	if err != nil {
		t.Fatalf("request permissions: %v", err)
	}
	if address != "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb" {
		t.Fatalf("unexpected address %q", address)
	}
}

func TestBridgeRequestPermissionsDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "user rejected"})
	}))
	defer srv.Close()

	_, err := newBridge(srv.URL).RequestPermissions(context.Background(), "ghostnet")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestBridgeRequestPermissionsBridgeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "no wallet paired"})
	}))
	defer srv.Close()

	_, err := newBridge(srv.URL).RequestPermissions(context.Background(), "ghostnet")
	if err == nil || errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("a bridge failure must not look like a user rejection, got %v", err)
	}
	if !strings.Contains(err.Error(), "no wallet paired") {
		t.Fatalf("expected bridge error message, got %v", err)
	}
}

func TestBridgeTransferConfirmationApplied(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/transfer":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["to"] != "tz1dest" || req["amount"] != float64(1_000_000) || req["mutez"] != true {
				t.Errorf("unexpected transfer body: %v", req)
			}
			writeJSON(w, http.StatusOK, map[string]string{"opHash": "ooBRIDGE1"})
		case r.Method == http.MethodGet && r.URL.Path == "/operations/ooBRIDGE1":
			polls++
			status := "pending"
			if polls >= 2 {
				status = "applied"
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": status})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	handle, err := newBridge(srv.URL).Transfer(context.Background(), "tz1dest", 1_000_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if handle.Hash() != "ooBRIDGE1" {
		t.Fatalf("unexpected hash %q", handle.Hash())
	}

	ref, err := handle.Confirmation(context.Background())
	if err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if ref != "ooBRIDGE1" {
		t.Fatalf("unexpected reference %q", ref)
	}
	if polls < 2 {
		t.Fatalf("expected the poll loop to ride out a pending status, polls=%d", polls)
	}
}

func TestBridgeConfirmationTerminalFailure(t *testing.T) {
	for _, status := range []string{"failed", "backtracked"} {
		t.Run(status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/transfer":
					writeJSON(w, http.StatusOK, map[string]string{"opHash": "ooBRIDGE2"})
				default:
					writeJSON(w, http.StatusOK, map[string]string{"status": status})
				}
			}))
			defer srv.Close()

			handle, err := newBridge(srv.URL).Transfer(context.Background(), "tz1dest", 1)
			if err != nil {
				t.Fatalf("transfer: %v", err)
			}
			_, err = handle.Confirmation(context.Background())
			if err == nil || !strings.Contains(err.Error(), status) {
				t.Fatalf("expected %s failure, got %v", status, err)
			}
		})
	}
}

func TestBridgeConfirmationTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transfer":
			writeJSON(w, http.StatusOK, map[string]string{"opHash": "ooBRIDGE3"})
		default:
			// never leaves pending
			writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
		}
	}))
	defer srv.Close()

	session := NewBridgeSession(srv.URL, 50*time.Millisecond, 5*time.Millisecond)
	handle, err := session.Transfer(context.Background(), "tz1dest", 1)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	_, err = handle.Confirmation(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBridgeClearSession(t *testing.T) {
	cleared := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/session" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		cleared = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newBridge(srv.URL).ClearSession(context.Background()); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if !cleared {
		t.Fatal("bridge was never called")
	}
}

func TestBridgeClearSessionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newBridge(srv.URL).ClearSession(context.Background()); err == nil {
		t.Fatal("expected error on bridge failure")
	}
}
