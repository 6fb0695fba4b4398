package usecase

import (
	"context"
	"time"

	"github.com/iho/coinledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	// GetByExternalID is a plain read without locking. Callers must not derive a
	// balance write from its result.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	// GetByExternalIDForUpdate reads the account row and holds an exclusive lock on it
	// until tx ends. Every money-moving operation reads balances through this method.
	GetByExternalIDForUpdate(ctx context.Context, tx Transaction, externalID string) (*domain.Account, error)
	// UpdateBalance writes an already validated non-negative balance. It must follow a
	// GetByExternalIDForUpdate of the same row in the same tx.
	UpdateBalance(ctx context.Context, tx Transaction, externalID string, balance int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// CatalogRepository defines data access for catalog items.
type CatalogRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	GetByName(ctx context.Context, name string) (*domain.CatalogItem, error)
	List(ctx context.Context) ([]*domain.CatalogItem, error)
}

// OwnershipRepository defines data access for item ownership.
type OwnershipRepository interface {
	// GetForUpdate returns the locked ownership row, or nil when the account does not
	// own the item yet.
	GetForUpdate(ctx context.Context, tx Transaction, accountID, itemID string) (*domain.Ownership, error)
	// UpsertIncrement adds by to the quantity of ownership, inserting the row when it
	// does not exist. It returns the resulting quantity.
	UpsertIncrement(ctx context.Context, tx Transaction, ownership *domain.Ownership, by int64, updatedAt time.Time) (int64, error)
	ListForAccount(ctx context.Context, accountID string) ([]domain.InventoryLine, error)
}

// EntryRepository defines data access for journal entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	SumByAccount(ctx context.Context, accountID string) (int64, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalBalance, totalEntryAmount int64, err error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs operation while it fails with an error that guarantees the
// previous attempt was rolled back entirely.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose command did not complete.
	Delete(ctx context.Context, key string) error
}
