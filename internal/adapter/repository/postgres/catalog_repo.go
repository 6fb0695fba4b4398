package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
)

// CatalogRepository implements usecase.CatalogRepository.
type CatalogRepository struct {
	queries *generated.Queries
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db generated.DBTX) *CatalogRepository {
	return &CatalogRepository{
		queries: generated.New(db),
	}
}

// Create adds an item to the catalog.
func (r *CatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	err := r.queries.CreateItem(ctx, generated.CreateItemParams{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		CreatedAt: timeToPgTimestamptz(item.CreatedAt),
	})

	return translateError(err, domain.ErrItemAlreadyExists)
}

// GetByName retrieves an item by case-insensitive name.
func (r *CatalogRepository) GetByName(ctx context.Context, name string) (*domain.CatalogItem, error) {
	row, err := r.queries.GetItemByName(ctx, domain.NormalizeItemName(name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}

		return nil, translateError(err, nil)
	}

	return rowToItem(row), nil
}

// List lists every item in insertion order.
func (r *CatalogRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	rows, err := r.queries.ListItems(ctx)
	if err != nil {
		return nil, translateError(err, nil)
	}

	items := make([]*domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}

	return items, nil
}

func rowToItem(row generated.Item) *domain.CatalogItem {
	return &domain.CatalogItem{
		ID:        row.ID,
		Name:      row.Name,
		Price:     row.Price,
		CreatedAt: row.CreatedAt.Time,
	}
}
