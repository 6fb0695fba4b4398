package postgres

import (
	"context"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
	"github.com/iho/coinledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	err := queriesFor(tx).CreateEntry(ctx, generated.CreateEntryParams{
		ID:              entry.ID,
		AccountID:       entry.AccountID,
		Kind:            string(entry.Kind),
		Reference:       entry.Reference,
		Amount:          entry.Amount,
		PreviousBalance: entry.PreviousBalance,
		CurrentBalance:  entry.CurrentBalance,
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
	})

	return translateError(err, nil)
}

// GetByAccount retrieves entries for an account, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, translateError(err, nil)
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// SumByAccount sums the amounts of all entries of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	total, err := r.queries.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return 0, translateError(err, nil)
	}

	return total, nil
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:              row.ID,
		AccountID:       row.AccountID,
		Kind:            domain.EntryKind(row.Kind),
		Reference:       row.Reference,
		Amount:          row.Amount,
		PreviousBalance: row.PreviousBalance,
		CurrentBalance:  row.CurrentBalance,
		CreatedAt:       row.CreatedAt.Time,
	}
}
