package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/postgres/generated"
	"github.com/iho/coinledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. A *pgxpool.Pool satisfies db.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return createAccount(ctx, r.queries, account)
}

// CreateTx creates a new account inside tx.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return createAccount(ctx, queriesFor(tx), account)
}

func createAccount(ctx context.Context, q *generated.Queries, account *domain.Account) error {
	err := q.CreateAccount(ctx, generated.CreateAccountParams{
		ExternalID: account.ExternalID,
		Balance:    account.Balance,
		CreatedAt:  timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:  timeToPgTimestamptz(account.UpdatedAt),
	})

	return translateError(err, domain.ErrAlreadyRegistered)
}

// GetByExternalID retrieves an account without locking it.
func (r *AccountRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	row, err := r.queries.GetAccount(ctx, externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotRegistered
		}

		return nil, translateError(err, nil)
	}

	return rowToAccount(row), nil
}

// GetByExternalIDForUpdate retrieves an account with a FOR UPDATE lock.
func (r *AccountRepository) GetByExternalIDForUpdate(ctx context.Context, tx usecase.Transaction, externalID string) (*domain.Account, error) {
	row, err := queriesFor(tx).GetAccountForUpdate(ctx, externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotRegistered
		}

		return nil, translateError(err, nil)
	}

	return rowToAccount(row), nil
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, externalID string, balance int64, updatedAt time.Time) error {
	err := queriesFor(tx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ExternalID: externalID,
		Balance:    balance,
		UpdatedAt:  timeToPgTimestamptz(updatedAt),
	})

	return translateError(err, nil)
}

// List lists accounts ordered by external id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, translateError(err, nil)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ExternalID: row.ExternalID,
		Balance:    row.Balance,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
