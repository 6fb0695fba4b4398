package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
	"github.com/iho/coinledger/internal/usecase"
)

const setLockTimeout = `SELECT set_config('lock_timeout', $1, true)`

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool        pgxPool
	lockTimeout time.Duration
}

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithLockTimeout bounds every row lock wait inside transactions started by the
// manager. A wait that exceeds it fails with domain.ErrBusy.
func WithLockTimeout(d time.Duration) TxOption {
	return func(m *TxManager) {
		m.lockTimeout = d
	}
}

// NewTxManager creates a new TxManager. A *pgxpool.Pool satisfies pool.
func NewTxManager(pool pgxPool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, translateError(err, nil)
	}

	if m.lockTimeout > 0 {
		value := fmt.Sprintf("%dms", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, setLockTimeout, value); err != nil {
			_ = tx.Rollback(ctx)
			return nil, translateError(err, nil)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return translateError(t.tx.Commit(ctx), nil)
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

func queriesFor(tx usecase.Transaction) *generated.Queries {
	return generated.New(tx.(*Tx).PgxTx())
}
