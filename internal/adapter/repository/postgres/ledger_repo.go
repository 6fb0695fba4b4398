package postgres

import (
	"context"

	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns the sum of all balances and the sum of all entry amounts.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (int64, int64, error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return 0, 0, translateError(err, nil)
	}

	return result.TotalBalance, result.TotalEntries, nil
}
