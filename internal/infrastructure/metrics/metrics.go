package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/coinledger/internal/domain"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeUnknown = "error"
)

var outcomeLabels = map[error]string{
	domain.ErrKindNotRegistered:     "not_registered",
	domain.ErrKindAlreadyRegistered: "already_registered",
	domain.ErrKindAlreadyExists:     "already_exists",
	domain.ErrKindInvalidArgument:   "invalid_argument",
	domain.ErrKindInsufficientFunds: "insufficient_funds",
	domain.ErrKindItemNotFound:      "item_not_found",
	domain.ErrKindBusy:              "busy",
	domain.ErrKindStoreUnavailable:  "store_unavailable",
}

// Outcome returns the label recorded for a command finishing with err.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}

	if label, ok := outcomeLabels[domain.KindOf(err)]; ok {
		return label
	}

	return OutcomeUnknown
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	AmountMoved     *prometheus.HistogramVec

	// Account metrics
	AccountsRegistered prometheus.Counter
	ItemsPurchased     *prometheus.CounterVec

	// Store metrics
	TxRetries    prometheus.Counter
	LockTimeouts prometheus.Counter

	// Idempotency metrics
	IdempotentReplays prometheus.Counter

	// Reconciliation metrics
	LedgerConsistent       prometheus.Gauge
	ReconcileDiscrepancies prometheus.Gauge
}

// New creates and registers all metrics with the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics with reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinledger_commands_total",
				Help: "Total commands handled by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinledger_command_duration_seconds",
				Help:    "Duration of command handling",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		AmountMoved: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinledger_amount_moved",
				Help:    "Amounts moved by committed money commands",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"verb"},
		),

		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinledger_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		ItemsPurchased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinledger_items_purchased_total",
				Help: "Total number of items purchased",
			},
			[]string{"item"},
		),

		TxRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinledger_tx_retries_total",
			Help: "Transactions re-run after a deadlock or serialization failure",
		}),
		LockTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinledger_lock_timeouts_total",
			Help: "Commands that gave up waiting for a row lock",
		}),

		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinledger_idempotent_replays_total",
			Help: "Duplicate commands answered from the idempotency store",
		}),

		LedgerConsistent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coinledger_ledger_consistent",
			Help: "1 when the sum of balances equals the sum of journal entries",
		}),
		ReconcileDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coinledger_reconcile_discrepancies",
			Help: "Accounts whose balance differs from their journal",
		}),
	}
}

// ObserveCommand records one handled command.
func (m *Metrics) ObserveCommand(verb string, err error, d time.Duration) {
	m.CommandsTotal.WithLabelValues(verb, Outcome(err)).Inc()
	m.CommandDuration.WithLabelValues(verb).Observe(d.Seconds())

	if errors.Is(err, domain.ErrKindBusy) {
		m.LockTimeouts.Inc()
	}
}

// ObserveAmount records the amount moved by a committed command.
func (m *Metrics) ObserveAmount(verb string, amount int64) {
	m.AmountMoved.WithLabelValues(verb).Observe(float64(amount))
}

// ObserveRegistration records a new account.
func (m *Metrics) ObserveRegistration() {
	m.AccountsRegistered.Inc()
}

// ObservePurchase records a committed purchase.
func (m *Metrics) ObservePurchase(item string) {
	m.ItemsPurchased.WithLabelValues(item).Inc()
}

// ObserveReplay records a duplicate command answered from the idempotency store.
func (m *Metrics) ObserveReplay() {
	m.IdempotentReplays.Inc()
}

// ObserveRetry records a transaction retry.
func (m *Metrics) ObserveRetry() {
	m.TxRetries.Inc()
}

// ObserveReconciliation records the result of a reconciliation run.
func (m *Metrics) ObserveReconciliation(consistent bool, discrepancies int) {
	if consistent {
		m.LedgerConsistent.Set(1)
	} else {
		m.LedgerConsistent.Set(0)
	}
	m.ReconcileDiscrepancies.Set(float64(discrepancies))
}
