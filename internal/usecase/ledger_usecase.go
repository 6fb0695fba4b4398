package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/coinledger/internal/domain"
)

// LedgerUseCase runs the money-moving operations of the economy. It holds no state
// between calls: every operation re-reads the rows it changes under a row lock inside a
// single transaction, so concurrent callers serialize on the store.
//
// Lock order: account rows before ownership rows, and account rows in ascending
// external id.
type LedgerUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	catalogRepo     CatalogRepository
	ownershipRepo   OwnershipRepository
	entryRepo       EntryRepository
	idGen           IDGenerator
	retrier         Retrier
	startingBalance int64
	txTimeout       time.Duration
	now             func() time.Time
}

// LedgerOption configures a LedgerUseCase.
type LedgerOption func(*LedgerUseCase)

// WithRetrier sets the retrier wrapped around every transactional operation.
func WithRetrier(r Retrier) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.retrier = r
	}
}

// WithStartingBalance overrides domain.DefaultStartingBalance.
func WithStartingBalance(balance int64) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.startingBalance = balance
	}
}

// WithTransactionTimeout overrides DefaultTransactionTimeout.
func WithTransactionTimeout(d time.Duration) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.txTimeout = d
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.now = now
	}
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	catalogRepo CatalogRepository,
	ownershipRepo OwnershipRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		catalogRepo:     catalogRepo,
		ownershipRepo:   ownershipRepo,
		entryRepo:       entryRepo,
		idGen:           idGen,
		retrier:         onceRetrier{},
		startingBalance: domain.DefaultStartingBalance,
		txTimeout:       DefaultTransactionTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// AmountInput represents input for a privileged credit or debit.
type AmountInput struct {
	ExternalID string
	Amount     int64
}

// TransferInput represents input for a transfer between two accounts.
type TransferInput struct {
	FromID string
	ToID   string
	Amount int64
}

// TransferResult holds both balances after a committed transfer.
type TransferResult struct {
	FromBalance int64
	ToBalance   int64
}

// PurchaseInput represents input for buying one unit of an item.
type PurchaseInput struct {
	ExternalID string
	ItemName   string
}

// PurchaseResult describes a committed purchase.
type PurchaseResult struct {
	Item     *domain.CatalogItem
	Balance  int64
	Quantity int64
}

// AddItemInput represents input for adding a catalog item.
type AddItemInput struct {
	Name  string
	Price int64
}

// Register creates an account holding the starting balance.
func (uc *LedgerUseCase) Register(ctx context.Context, externalID string) (*domain.Account, error) {
	if err := domain.ValidateExternalID(externalID); err != nil {
		return nil, err
	}

	_, err := uc.accountRepo.GetByExternalID(ctx, externalID)
	if err == nil {
		return nil, domain.ErrAlreadyRegistered
	}
	if !errors.Is(err, domain.ErrNotRegistered) {
		return nil, err
	}

	now := uc.now()
	account := &domain.Account{
		ExternalID: externalID,
		Balance:    uc.startingBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The unique constraint on external_id settles concurrent registrations that both
	// passed the check above.
	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.CreateTx(ctx, tx, account); err != nil {
			return err
		}

		if account.Balance == 0 {
			return nil
		}

		return uc.entryRepo.Create(ctx, tx, &domain.Entry{
			ID:              uc.idGen.Generate(),
			AccountID:       externalID,
			Kind:            domain.EntryKindRegister,
			Amount:          account.Balance,
			PreviousBalance: 0,
			CurrentBalance:  account.Balance,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetBalance returns the committed balance of an account.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, externalID string) (int64, error) {
	account, err := uc.accountRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return 0, err
	}

	return account.Balance, nil
}

// Credit adds amount to an account and returns the new balance.
func (uc *LedgerUseCase) Credit(ctx context.Context, input AmountInput) (int64, error) {
	return uc.adjust(ctx, input, domain.EntryKindCredit)
}

// Debit removes amount from an account and returns the new balance.
func (uc *LedgerUseCase) Debit(ctx context.Context, input AmountInput) (int64, error) {
	return uc.adjust(ctx, input, domain.EntryKindDebit)
}

func (uc *LedgerUseCase) adjust(ctx context.Context, input AmountInput, kind domain.EntryKind) (int64, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return 0, err
	}

	var balance int64

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByExternalIDForUpdate(ctx, tx, input.ExternalID)
		if err != nil {
			return err
		}

		var newBalance, delta int64
		if kind == domain.EntryKindDebit {
			if err := account.ValidateDebit(input.Amount); err != nil {
				return err
			}
			newBalance, delta = account.ApplyDebit(input.Amount), -input.Amount
		} else {
			if err := account.ValidateCredit(input.Amount); err != nil {
				return err
			}
			newBalance, delta = account.ApplyCredit(input.Amount), input.Amount
		}

		if err := uc.apply(ctx, tx, account, delta, newBalance, kind, ""); err != nil {
			return err
		}

		balance = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// Transfer moves amount between two accounts atomically.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	transfer := &domain.Transfer{
		FromAccountID: input.FromID,
		ToAccountID:   input.ToID,
		Amount:        input.Amount,
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	var result *TransferResult

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		accounts, err := uc.lockAccounts(ctx, tx, transfer.LockOrder())
		if err != nil {
			return err
		}

		from := accounts[transfer.FromAccountID]
		to := accounts[transfer.ToAccountID]

		if err := from.ValidateDebit(transfer.Amount); err != nil {
			return err
		}
		if err := to.ValidateCredit(transfer.Amount); err != nil {
			return err
		}

		fromBalance := from.ApplyDebit(transfer.Amount)
		if err := uc.apply(ctx, tx, from, -transfer.Amount, fromBalance, domain.EntryKindTransferOut, to.ExternalID); err != nil {
			return err
		}

		toBalance := to.ApplyCredit(transfer.Amount)
		if err := uc.apply(ctx, tx, to, transfer.Amount, toBalance, domain.EntryKindTransferIn, from.ExternalID); err != nil {
			return err
		}

		result = &TransferResult{FromBalance: fromBalance, ToBalance: toBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Purchase buys one unit of an item for an account.
func (uc *LedgerUseCase) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	name := domain.NormalizeItemName(input.ItemName)
	if err := domain.ValidateItemName(name); err != nil {
		return nil, err
	}

	var result *PurchaseResult

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByExternalIDForUpdate(ctx, tx, input.ExternalID)
		if err != nil {
			return err
		}

		item, err := uc.catalogRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}

		if err := account.ValidateDebit(item.Price); err != nil {
			return err
		}

		newBalance := account.ApplyDebit(item.Price)
		if err := uc.apply(ctx, tx, account, -item.Price, newBalance, domain.EntryKindPurchase, item.Name); err != nil {
			return err
		}

		now := uc.now()

		owned, err := uc.ownershipRepo.GetForUpdate(ctx, tx, account.ExternalID, item.ID)
		if err != nil {
			return err
		}
		if owned == nil {
			owned = &domain.Ownership{
				ID:        uc.idGen.Generate(),
				AccountID: account.ExternalID,
				ItemID:    item.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}

		quantity, err := uc.ownershipRepo.UpsertIncrement(ctx, tx, owned, 1, now)
		if err != nil {
			return err
		}

		result = &PurchaseResult{Item: item, Balance: newBalance, Quantity: quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddItem adds a new item to the catalog.
func (uc *LedgerUseCase) AddItem(ctx context.Context, input AddItemInput) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{
		ID:        uc.idGen.Generate(),
		Name:      domain.NormalizeItemName(input.Name),
		Price:     input.Price,
		CreatedAt: uc.now(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := uc.catalogRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ListCatalog lists every catalog item in insertion order.
func (uc *LedgerUseCase) ListCatalog(ctx context.Context) ([]*domain.CatalogItem, error) {
	return uc.catalogRepo.List(ctx)
}

// ListInventory lists the items owned by an account.
func (uc *LedgerUseCase) ListInventory(ctx context.Context, externalID string) ([]domain.InventoryLine, error) {
	if _, err := uc.accountRepo.GetByExternalID(ctx, externalID); err != nil {
		return nil, err
	}

	return uc.ownershipRepo.ListForAccount(ctx, externalID)
}

// lockAccounts locks the given accounts one by one in the order given. ids must
// already be in canonical order.
func (uc *LedgerUseCase) lockAccounts(ctx context.Context, tx Transaction, ids []string) (map[string]*domain.Account, error) {
	accounts := make(map[string]*domain.Account, len(ids))
	for _, id := range ids {
		account, err := uc.accountRepo.GetByExternalIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = account
	}

	return accounts, nil
}

// apply journals a balance change and writes the new balance of a locked account.
func (uc *LedgerUseCase) apply(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	delta, newBalance int64,
	kind domain.EntryKind,
	reference string,
) error {
	now := uc.now()

	err := uc.entryRepo.Create(ctx, tx, &domain.Entry{
		ID:              uc.idGen.Generate(),
		AccountID:       account.ExternalID,
		Kind:            kind,
		Reference:       reference,
		Amount:          delta,
		PreviousBalance: account.Balance,
		CurrentBalance:  newBalance,
		CreatedAt:       now,
	})
	if err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ExternalID, newBalance, now); err != nil {
		return err
	}

	account.Balance = newBalance
	account.UpdatedAt = now

	return nil
}

// inTx runs fn in a fresh transaction, committing on success. Every attempt begins a
// new transaction; nothing from a failed attempt is kept.
func (uc *LedgerUseCase) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	return uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := fn(ctx, tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

type onceRetrier struct{}

func (onceRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
