package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/coinledger/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.CommandsTotal == nil || m.TxRetries == nil || m.LedgerConsistent == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveRegistration()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{domain.ErrInsufficientFunds, "insufficient_funds"},
		{fmt.Errorf("wrapped: %w", domain.ErrBusy), "busy"},
		{domain.ErrSameAccount, "invalid_argument"},
		{domain.ErrItemAlreadyExists, "already_exists"},
		{errors.New("boom"), OutcomeUnknown},
	}

	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Fatalf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveCommand(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveCommand("send", nil, 10*time.Millisecond)
	m.ObserveCommand("send", domain.ErrInsufficientFunds, time.Millisecond)
	m.ObserveCommand("buy", domain.ErrBusy, time.Second)

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("send", OutcomeOK)); got != 1 {
		t.Fatalf("expected 1 ok send, got %v", got)
	}

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("send", "insufficient_funds")); got != 1 {
		t.Fatalf("expected 1 failed send, got %v", got)
	}

	if got := testutil.ToFloat64(m.LockTimeouts); got != 1 {
		t.Fatalf("expected 1 lock timeout, got %v", got)
	}
}

func TestObserveReconciliation(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveReconciliation(false, 3)
	if got := testutil.ToFloat64(m.LedgerConsistent); got != 0 {
		t.Fatalf("expected inconsistent gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReconcileDiscrepancies); got != 3 {
		t.Fatalf("expected 3 discrepancies, got %v", got)
	}

	m.ObserveReconciliation(true, 0)
	if got := testutil.ToFloat64(m.LedgerConsistent); got != 1 {
		t.Fatalf("expected consistent gauge 1, got %v", got)
	}
}
