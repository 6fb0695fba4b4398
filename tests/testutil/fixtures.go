package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgresRepo "github.com/iho/coinledger/internal/adapter/repository/postgres"
	"github.com/iho/coinledger/internal/infrastructure/postgres"
	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
	"github.com/iho/coinledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL and migrates it. The test is skipped when the
// variable is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, ""); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: dbURL, MaxConns: 40})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
	t.Cleanup(db.Cleanup)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE entries, ownerships, items, accounts CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Ledger bundles the use cases over one database.
type Ledger struct {
	*usecase.LedgerUseCase

	Accounts       *postgresRepo.AccountRepository
	Entries        *postgresRepo.EntryRepository
	Reconciliation *usecase.ReconciliationUseCase
}

// NewLedger wires the ledger to the test database the way the server does.
func (db *TestDB) NewLedger(lockTimeout time.Duration, opts ...usecase.LedgerOption) *Ledger {
	accounts := postgresRepo.NewAccountRepository(db.Pool)
	entries := postgresRepo.NewEntryRepository(db.Pool)

	opts = append([]usecase.LedgerOption{
		usecase.WithRetrier(postgresRepo.NewRetrier()),
	}, opts...)

	return &Ledger{
		LedgerUseCase: usecase.NewLedgerUseCase(
			postgresRepo.NewTxManager(db.Pool, postgresRepo.WithLockTimeout(lockTimeout)),
			accounts,
			postgresRepo.NewCatalogRepository(db.Pool),
			postgresRepo.NewOwnershipRepository(db.Pool),
			entries,
			postgresRepo.NewULIDGenerator(),
			opts...,
		),
		Accounts:       accounts,
		Entries:        entries,
		Reconciliation: usecase.NewReconciliationUseCase(accounts, entries, postgresRepo.NewLedgerRepository(db.Pool)),
	}
}

// CountOwnershipRows returns how many ownership rows pair the account and item.
func (db *TestDB) CountOwnershipRows(ctx context.Context, accountID, itemID string) int64 {
	db.t.Helper()

	n, err := db.Queries.CountOwnershipRows(ctx, generated.CountOwnershipRowsParams{
		AccountID: accountID,
		ItemID:    itemID,
	})
	if err != nil {
		db.t.Fatalf("failed to count ownership rows: %v", err)
	}
	return n
}
