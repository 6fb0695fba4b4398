package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/coinledger/internal/adapter/http/dto"
)

func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--url", serverURL}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}

	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
}

func TestLedgerConsistency(t *testing.T) {
	status := http.StatusOK
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"consistent","consistent":true}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "--token", "tok", "ledger", "consistency")
	if err != nil {
		t.Fatalf("consistency failed: %v", err)
	}
	if authHeader != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", authHeader)
	}
	if !strings.Contains(out, "PASSED") || !strings.Contains(out, "consistent") {
		t.Fatalf("unexpected output %q", out)
	}

	status = http.StatusConflict
	if _, err := run(t, srv.URL, "ledger", "consistency"); err == nil {
		t.Fatal("expected failure on 409")
	}
}

func TestItemsAndReconcile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/items":
			_ = json.NewEncoder(w).Encode([]dto.ItemResponse{{Name: "sword", Price: 500}})
		case "/api/v1/ledger/reconciliation":
			_ = json.NewEncoder(w).Encode(dto.ReconciliationResponse{
				TotalAccounts:      2,
				ReconciledAccounts: 1,
				Discrepancies:      []*dto.DiscrepancyResponse{{AccountID: "7", RecordedBalance: 10, CalculatedBalance: 5, Difference: 5}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "items")
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	if !strings.Contains(out, "sword") || !strings.Contains(out, "500") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, srv.URL, "ledger", "reconcile")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !strings.Contains(out, "Accounts: 2") || !strings.Contains(out, "diff=5") {
		t.Fatalf("unexpected output %q", out)
	}
}
