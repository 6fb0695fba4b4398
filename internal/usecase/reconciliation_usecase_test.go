package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/usecase"
)

type stubAccountRepository struct {
	getFn  func(ctx context.Context, id string) (*domain.Account, error)
	listFn func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func (s *stubAccountRepository) Create(context.Context, *domain.Account) error { return nil }
func (s *stubAccountRepository) CreateTx(context.Context, usecase.Transaction, *domain.Account) error {
	return nil
}
func (s *stubAccountRepository) GetByExternalID(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}
func (s *stubAccountRepository) GetByExternalIDForUpdate(context.Context, usecase.Transaction, string) (*domain.Account, error) {
	return nil, errors.New("not implemented")
}
func (s *stubAccountRepository) UpdateBalance(context.Context, usecase.Transaction, string, int64, time.Time) error {
	return errors.New("not implemented")
}
func (s *stubAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return s.listFn(ctx, limit, offset)
}

type stubEntryRepository struct {
	sums map[string]int64
}

func (s *stubEntryRepository) Create(context.Context, usecase.Transaction, *domain.Entry) error {
	return nil
}
func (s *stubEntryRepository) GetByAccount(context.Context, string, int, int) ([]*domain.Entry, error) {
	return nil, nil
}
func (s *stubEntryRepository) SumByAccount(_ context.Context, id string) (int64, error) {
	return s.sums[id], nil
}

type stubLedgerRepository struct {
	checkFn func(ctx context.Context) (int64, int64, error)
}

func (s *stubLedgerRepository) CheckConsistency(ctx context.Context) (int64, int64, error) {
	return s.checkFn(ctx)
}

func balancedLedger() *stubLedgerRepository {
	return &stubLedgerRepository{
		checkFn: func(context.Context) (int64, int64, error) {
			return 0, 0, nil
		},
	}
}

func accountsRepo(accounts ...*domain.Account) *stubAccountRepository {
	return &stubAccountRepository{
		listFn: func(_ context.Context, limit, offset int) ([]*domain.Account, error) {
			if offset >= len(accounts) {
				return nil, nil
			}
			end := min(offset+limit, len(accounts))
			return accounts[offset:end], nil
		},
		getFn: func(_ context.Context, id string) (*domain.Account, error) {
			for _, a := range accounts {
				if a.ExternalID == id {
					return a, nil
				}
			}
			return nil, domain.ErrNotRegistered
		},
	}
}

func TestReconcileAccount(t *testing.T) {
	t.Parallel()

	account := &domain.Account{ExternalID: "acc-1", Balance: 150}
	entries := &stubEntryRepository{sums: map[string]int64{"acc-1": 150}}

	uc := usecase.NewReconciliationUseCase(accountsRepo(account), entries, balancedLedger())

	result, err := uc.ReconcileAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RecordedBalance != account.Balance {
		t.Fatalf("expected balance %d, got %d", account.Balance, result.RecordedBalance)
	}

	if !result.IsReconciled {
		t.Fatal("expected account to be marked as reconciled")
	}

	if result.LastChecked.IsZero() {
		t.Fatal("expected LastChecked timestamp to be set")
	}
}

func TestReconcileAccount_Discrepancy(t *testing.T) {
	t.Parallel()

	account := &domain.Account{ExternalID: "acc-1", Balance: 150}
	entries := &stubEntryRepository{sums: map[string]int64{"acc-1": 100}}

	uc := usecase.NewReconciliationUseCase(accountsRepo(account), entries, balancedLedger())

	result, err := uc.ReconcileAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsReconciled {
		t.Fatal("expected discrepancy")
	}

	if result.Difference != 50 {
		t.Fatalf("expected difference 50, got %d", result.Difference)
	}
}

func TestReconcileAccount_PropagatesError(t *testing.T) {
	t.Parallel()

	accountRepo := &stubAccountRepository{
		getFn: func(context.Context, string) (*domain.Account, error) {
			return nil, fmt.Errorf("boom")
		},
	}

	uc := usecase.NewReconciliationUseCase(accountRepo, &stubEntryRepository{}, balancedLedger())

	_, err := uc.ReconcileAccount(context.Background(), "missing")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestReconcileAllAccounts_Pages(t *testing.T) {
	t.Parallel()

	accounts := make([]*domain.Account, 0, 1200)
	sums := make(map[string]int64, 1200)
	for i := range 1200 {
		id := fmt.Sprintf("acc-%04d", i)
		accounts = append(accounts, &domain.Account{ExternalID: id, Balance: int64(i)})
		sums[id] = int64(i)
	}

	uc := usecase.NewReconciliationUseCase(accountsRepo(accounts...), &stubEntryRepository{sums: sums}, balancedLedger())

	results, err := uc.ReconcileAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != len(accounts) {
		t.Fatalf("expected %d results, got %d", len(accounts), len(results))
	}
}

func TestCheckLedgerConsistency(t *testing.T) {
	t.Parallel()

	okLedger := &stubLedgerRepository{
		checkFn: func(context.Context) (int64, int64, error) {
			return 500, 500, nil
		},
	}

	uc := usecase.NewReconciliationUseCase(accountsRepo(), &stubEntryRepository{}, okLedger)
	if err := uc.CheckLedgerConsistency(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badLedger := &stubLedgerRepository{
		checkFn: func(context.Context) (int64, int64, error) {
			return 100, 50, nil
		},
	}

	uc = usecase.NewReconciliationUseCase(accountsRepo(), &stubEntryRepository{}, badLedger)
	if err := uc.CheckLedgerConsistency(context.Background()); !errors.Is(err, usecase.ErrInconsistentLedger) {
		t.Fatalf("expected ErrInconsistentLedger, got %v", err)
	}

	failingLedger := &stubLedgerRepository{
		checkFn: func(context.Context) (int64, int64, error) {
			return 0, 0, domain.ErrStoreUnavailable
		},
	}

	uc = usecase.NewReconciliationUseCase(accountsRepo(), &stubEntryRepository{}, failingLedger)
	if err := uc.CheckLedgerConsistency(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestGenerateReconciliationReport(t *testing.T) {
	t.Parallel()

	accounts := []*domain.Account{
		{ExternalID: "r1", Balance: 10},
		{ExternalID: "r2", Balance: 20},
	}
	entries := &stubEntryRepository{sums: map[string]int64{"r1": 10, "r2": 15}}

	ledgerRepo := &stubLedgerRepository{
		checkFn: func(context.Context) (int64, int64, error) {
			return 30, 25, nil
		},
	}

	uc := usecase.NewReconciliationUseCase(accountsRepo(accounts...), entries, ledgerRepo)

	report, err := uc.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalAccounts != len(accounts) {
		t.Fatalf("expected total accounts %d, got %d", len(accounts), report.TotalAccounts)
	}

	if report.ReconciledAccounts != 1 {
		t.Fatalf("expected 1 reconciled account, got %d", report.ReconciledAccounts)
	}

	if len(report.Discrepancies) != 1 || report.Discrepancies[0].AccountID != "r2" {
		t.Fatalf("expected discrepancy on r2, got %+v", report.Discrepancies)
	}

	if report.LedgerConsistent {
		t.Fatal("expected ledger to be marked inconsistent")
	}

	if report.CheckedAt.IsZero() {
		t.Fatal("expected CheckedAt timestamp")
	}
}
