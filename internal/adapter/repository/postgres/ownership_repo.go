package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
	"github.com/iho/coinledger/internal/usecase"
)

// OwnershipRepository implements usecase.OwnershipRepository.
type OwnershipRepository struct {
	queries *generated.Queries
}

// NewOwnershipRepository creates a new OwnershipRepository.
func NewOwnershipRepository(db generated.DBTX) *OwnershipRepository {
	return &OwnershipRepository{
		queries: generated.New(db),
	}
}

// GetForUpdate returns the locked ownership row for the pair, or nil when none exists.
func (r *OwnershipRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, itemID string) (*domain.Ownership, error) {
	row, err := queriesFor(tx).GetOwnershipForUpdate(ctx, generated.GetOwnershipForUpdateParams{
		AccountID: accountID,
		ItemID:    itemID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err, nil)
	}

	return &domain.Ownership{
		ID:        row.ID,
		AccountID: row.AccountID,
		ItemID:    row.ItemID,
		Quantity:  row.Quantity,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

// UpsertIncrement increments the pair's quantity by by, inserting ownership when no
// row exists yet.
func (r *OwnershipRepository) UpsertIncrement(ctx context.Context, tx usecase.Transaction, ownership *domain.Ownership, by int64, updatedAt time.Time) (int64, error) {
	q := queriesFor(tx)

	quantity, err := q.IncrementOwnership(ctx, generated.IncrementOwnershipParams{
		AccountID: ownership.AccountID,
		ItemID:    ownership.ItemID,
		Quantity:  by,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, translateError(err, nil)
	}

	quantity, err = q.InsertOwnership(ctx, generated.InsertOwnershipParams{
		ID:        ownership.ID,
		AccountID: ownership.AccountID,
		ItemID:    ownership.ItemID,
		Quantity:  by,
		CreatedAt: timeToPgTimestamptz(ownership.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return 0, translateError(err, nil)
	}

	return quantity, nil
}

// ListForAccount lists inventory lines ordered by item name.
func (r *OwnershipRepository) ListForAccount(ctx context.Context, accountID string) ([]domain.InventoryLine, error) {
	rows, err := r.queries.ListInventory(ctx, accountID)
	if err != nil {
		return nil, translateError(err, nil)
	}

	lines := make([]domain.InventoryLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, domain.InventoryLine{ItemName: row.Name, Quantity: row.Quantity})
	}

	return lines, nil
}

// CountRows returns the number of ownership rows stored for the pair.
func (r *OwnershipRepository) CountRows(ctx context.Context, accountID, itemID string) (int64, error) {
	n, err := r.queries.CountOwnershipRows(ctx, generated.CountOwnershipRowsParams{
		AccountID: accountID,
		ItemID:    itemID,
	})

	return n, translateError(err, nil)
}
