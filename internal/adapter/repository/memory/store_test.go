package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/coinledger/internal/adapter/repository/memory"
	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/usecase"
)

type seqIDGenerator struct {
	n atomic.Int64
}

func (g *seqIDGenerator) Generate() string {
	return fmt.Sprintf("id-%08d", g.n.Add(1))
}

type harness struct {
	store      *memory.Store
	accounts   *memory.AccountRepository
	ownerships *memory.OwnershipRepository
	entries    *memory.EntryRepository
	txManager  *memory.TxManager
	ledger     *usecase.LedgerUseCase
	reconcile  *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T, opts ...memory.Option) *harness {
	t.Helper()

	store := memory.NewStore(opts...)
	h := &harness{
		store:      store,
		accounts:   memory.NewAccountRepository(store),
		ownerships: memory.NewOwnershipRepository(store),
		entries:    memory.NewEntryRepository(store),
		txManager:  memory.NewTxManager(store),
	}

	h.ledger = usecase.NewLedgerUseCase(
		h.txManager,
		h.accounts,
		memory.NewCatalogRepository(store),
		h.ownerships,
		h.entries,
		&seqIDGenerator{},
	)
	h.reconcile = usecase.NewReconciliationUseCase(h.accounts, h.entries, memory.NewLedgerRepository(store))

	return h
}

func (h *harness) register(t *testing.T, id string, balance int64) {
	t.Helper()

	ctx := context.Background()
	_, err := h.ledger.Register(ctx, id)
	require.NoError(t, err)

	switch {
	case balance > domain.DefaultStartingBalance:
		_, err = h.ledger.Credit(ctx, usecase.AmountInput{ExternalID: id, Amount: balance - domain.DefaultStartingBalance})
	case balance < domain.DefaultStartingBalance:
		_, err = h.ledger.Debit(ctx, usecase.AmountInput{ExternalID: id, Amount: domain.DefaultStartingBalance - balance})
	}
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, id string) int64 {
	t.Helper()

	b, err := h.ledger.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestConcurrentDebits_NoOverdraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 50)

	const attempts = 20

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
		failCount    atomic.Int32
	)

	wg.Add(attempts)
	for range attempts {
		go func() {
			defer wg.Done()

			_, err := h.ledger.Debit(ctx, usecase.AmountInput{ExternalID: "alice", Amount: 10})
			if err == nil {
				successCount.Add(1)
				return
			}
			if errors.Is(err, domain.ErrInsufficientFunds) {
				failCount.Add(1)
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), successCount.Load())
	assert.Equal(t, int32(attempts-5), failCount.Load())
	assert.Equal(t, int64(0), h.balance(t, "alice"))
}

func TestOppositeTransfers_NoDeadlock(t *testing.T) {
	h := newHarness(t, memory.WithLockTimeout(2*time.Second))
	ctx := context.Background()

	h.register(t, "alice", 1000)
	h.register(t, "bob", 1000)

	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(rounds * 2)

	for range rounds {
		go func() {
			defer wg.Done()
			_, err := h.ledger.Transfer(ctx, usecase.TransferInput{FromID: "alice", ToID: "bob", Amount: 7})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := h.ledger.Transfer(ctx, usecase.TransferInput{FromID: "bob", ToID: "alice", Amount: 3})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	alice := h.balance(t, "alice")
	bob := h.balance(t, "bob")

	assert.Equal(t, int64(2000), alice+bob)
	assert.Equal(t, int64(1000-rounds*7+rounds*3), alice)
}

func TestRandomTransfers_ConserveTotalAndReconcile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		h.register(t, id, 100)
	}

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			from := ids[i%len(ids)]
			to := ids[(i*3+1)%len(ids)]
			if from == to {
				return
			}

			_, err := h.ledger.Transfer(ctx, usecase.TransferInput{FromID: from, ToID: to, Amount: int64(i%40 + 1)})
			if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, id := range ids {
		b := h.balance(t, id)
		assert.GreaterOrEqual(t, b, int64(0))
		total += b
	}
	assert.Equal(t, int64(500), total)

	report, err := h.reconcile.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	assert.True(t, report.LedgerConsistent)
	assert.Equal(t, len(ids), report.ReconciledAccounts)
	assert.Empty(t, report.Discrepancies)
}

func TestConcurrentPurchases_SingleOwnershipRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 1000)
	item, err := h.ledger.AddItem(ctx, usecase.AddItemInput{Name: "sword", Price: 10})
	require.NoError(t, err)

	const buyers = 10

	var wg sync.WaitGroup
	wg.Add(buyers)
	for range buyers {
		go func() {
			defer wg.Done()
			_, err := h.ledger.Purchase(ctx, usecase.PurchaseInput{ExternalID: "alice", ItemName: "Sword"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.ownerships.CountRows("alice", item.ID))

	inventory, err := h.ledger.ListInventory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Equal(t, domain.InventoryLine{ItemName: "sword", Quantity: buyers}, inventory[0])
	assert.Equal(t, int64(1000-buyers*10), h.balance(t, "alice"))
}

func TestConcurrentRegister_SameID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const callers = 10

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
	)

	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()

			_, err := h.ledger.Register(ctx, "carol")
			if err == nil {
				successCount.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
	assert.Equal(t, domain.DefaultStartingBalance, h.balance(t, "carol"))

	sum, err := h.entries.SumByAccount(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStartingBalance, sum)
}

func TestCallerOrderLocking_SurfacesBusy(t *testing.T) {
	h := newHarness(t, memory.WithLockTimeout(50*time.Millisecond))
	ctx := context.Background()

	h.register(t, "alice", 100)
	h.register(t, "bob", 100)

	tx1, err := h.txManager.Begin(ctx)
	require.NoError(t, err)
	defer tx1.Rollback(ctx)

	tx2, err := h.txManager.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)

	_, err = h.accounts.GetByExternalIDForUpdate(ctx, tx1, "alice")
	require.NoError(t, err)
	_, err = h.accounts.GetByExternalIDForUpdate(ctx, tx2, "bob")
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() {
		_, err := h.accounts.GetByExternalIDForUpdate(ctx, tx1, "bob")
		errs <- err
	}()
	go func() {
		_, err := h.accounts.GetByExternalIDForUpdate(ctx, tx2, "alice")
		errs <- err
	}()

	for range 2 {
		err := <-errs
		assert.ErrorIs(t, err, domain.ErrBusy)
		assert.True(t, domain.IsTransient(err))
	}
}

func TestTx_WritesInvisibleUntilCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 100)

	tx, err := h.txManager.Begin(ctx)
	require.NoError(t, err)

	_, err = h.accounts.GetByExternalIDForUpdate(ctx, tx, "alice")
	require.NoError(t, err)
	require.NoError(t, h.accounts.UpdateBalance(ctx, tx, "alice", 40, time.Now()))

	locked, err := h.accounts.GetByExternalIDForUpdate(ctx, tx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), locked.Balance)

	assert.Equal(t, int64(100), h.balance(t, "alice"))

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, int64(40), h.balance(t, "alice"))
	assert.ErrorIs(t, tx.Commit(ctx), memory.ErrTxClosed)
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 100)

	tx, err := h.txManager.Begin(ctx)
	require.NoError(t, err)

	_, err = h.accounts.GetByExternalIDForUpdate(ctx, tx, "alice")
	require.NoError(t, err)
	require.NoError(t, h.accounts.UpdateBalance(ctx, tx, "alice", 0, time.Now()))
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, int64(100), h.balance(t, "alice"))

	// The row lock is released on rollback.
	_, err = h.ledger.Debit(ctx, usecase.AmountInput{ExternalID: "alice", Amount: 1})
	require.NoError(t, err)
}

func TestUpdateBalance_RequiresRowLock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 100)

	tx, err := h.txManager.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = h.accounts.UpdateBalance(ctx, tx, "alice", 1, time.Now())
	require.Error(t, err)
}

func TestPurchase_FailureLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.register(t, "alice", 5)
	_, err := h.ledger.AddItem(ctx, usecase.AddItemInput{Name: "sword", Price: 10})
	require.NoError(t, err)

	_, err = h.ledger.Purchase(ctx, usecase.PurchaseInput{ExternalID: "alice", ItemName: "sword"})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = h.ledger.Purchase(ctx, usecase.PurchaseInput{ExternalID: "alice", ItemName: "shield"})
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	inventory, err := h.ledger.ListInventory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, inventory)
	assert.Equal(t, int64(5), h.balance(t, "alice"))
}

func TestCatalog_DuplicateAndOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.AddItem(ctx, usecase.AddItemInput{Name: "sword", Price: 10})
	require.NoError(t, err)
	_, err = h.ledger.AddItem(ctx, usecase.AddItemInput{Name: "Shield", Price: 5})
	require.NoError(t, err)

	_, err = h.ledger.AddItem(ctx, usecase.AddItemInput{Name: "SWORD", Price: 99})
	require.ErrorIs(t, err, domain.ErrItemAlreadyExists)

	items, err := h.ledger.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "sword", items[0].Name)
	assert.Equal(t, "shield", items[1].Name)
}
