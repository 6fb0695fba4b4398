// Package memory provides an in-process ledger store with the same locking contract
// as the PostgreSQL adapter: locked reads hold an exclusive per-row lock until the
// transaction ends, lock waits are bounded, and writes become visible to other
// readers only at commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/usecase"
)

// DefaultLockTimeout bounds how long a locked read waits for a row held elsewhere.
const DefaultLockTimeout = 5 * time.Second

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("tx is closed")

// Store holds committed ledger state.
type Store struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	items       map[string]*domain.CatalogItem
	itemOrder   []string
	ownerships  []*domain.Ownership
	entries     []*domain.Entry
	locks       map[string]*rowLock
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		accounts:    make(map[string]*domain.Account),
		items:       make(map[string]*domain.CatalogItem),
		locks:       make(map[string]*rowLock),
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func accountLockKey(externalID string) string {
	return "account:" + externalID
}

func ownershipLockKey(accountID, itemID string) string {
	return "ownership:" + accountID + "/" + itemID
}

// rowLock is an exclusive lock on one row. refs counts the holder and waiters; the
// lock is dropped from Store.locks when it reaches zero.
type rowLock struct {
	ch   chan struct{}
	refs int
}

func (s *Store) ref(key string) *rowLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &rowLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

// unref must be called with s.mu held.
func (s *Store) unref(key string, l *rowLock) {
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

// acquire blocks until tx holds the row lock for key, the lock timeout elapses or
// ctx ends.
func (s *Store) acquire(ctx context.Context, tx *Tx, key string) error {
	if tx.holds(key) {
		return nil
	}

	l := s.ref(key)

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	var err error
	select {
	case l.ch <- struct{}{}:
		tx.held = append(tx.held, key)
		return nil
	case <-timer.C:
		err = fmt.Errorf("%w: waited %s for %s", domain.ErrBusy, s.lockTimeout, key)
	case <-ctx.Done():
		err = fmt.Errorf("%w: %w", domain.ErrBusy, ctx.Err())
	}

	s.mu.Lock()
	s.unref(key, l)
	s.mu.Unlock()

	return err
}

func (s *Store) release(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		l := s.locks[key]
		<-l.ch
		s.unref(key, l)
	}
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:      m.store,
		accounts:   make(map[string]*domain.Account),
		ownerships: make(map[string]*domain.Ownership),
	}, nil
}

// Tx buffers writes until Commit.
type Tx struct {
	store      *Store
	held       []string
	created    []*domain.Account
	accounts   map[string]*domain.Account
	ownerships map[string]*domain.Ownership
	entries    []*domain.Entry
	done       bool
}

func (t *Tx) holds(key string) bool {
	for _, k := range t.held {
		if k == key {
			return true
		}
	}
	return false
}

// Commit publishes buffered writes atomically and releases row locks.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	defer t.store.release(t.held)

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range t.created {
		if _, exists := s.accounts[a.ExternalID]; exists {
			return domain.ErrAlreadyRegistered
		}
	}

	for _, a := range t.created {
		acc := *a
		s.accounts[a.ExternalID] = &acc
	}

	for id, a := range t.accounts {
		acc := *a
		s.accounts[id] = &acc
	}

	for _, o := range t.ownerships {
		replaced := false
		for i, existing := range s.ownerships {
			if existing.ID == o.ID {
				row := *o
				s.ownerships[i] = &row
				replaced = true
				break
			}
		}
		if !replaced {
			row := *o
			s.ownerships = append(s.ownerships, &row)
		}
	}

	s.entries = append(s.entries, t.entries...)

	return nil
}

// Rollback discards buffered writes and releases row locks. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.release(t.held)
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	if t.done {
		return nil, ErrTxClosed
	}
	return t, nil
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ExternalID]; exists {
		return domain.ErrAlreadyRegistered
	}

	acc := *account
	s.accounts[account.ExternalID] = &acc
	return nil
}

// CreateTx creates a new account inside tx. A concurrent registration of the same id
// waits on the row lock like an insert waits on a unique index entry.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if err := r.store.acquire(ctx, t, accountLockKey(account.ExternalID)); err != nil {
		return err
	}

	if _, err := r.GetByExternalID(ctx, account.ExternalID); err == nil {
		return domain.ErrAlreadyRegistered
	}

	acc := *account
	t.created = append(t.created, &acc)
	return nil
}

// GetByExternalID retrieves a committed account without locking.
func (r *AccountRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[externalID]
	if !ok {
		return nil, domain.ErrNotRegistered
	}

	out := *acc
	return &out, nil
}

// GetByExternalIDForUpdate retrieves an account and holds its row lock until tx ends.
func (r *AccountRepository) GetByExternalIDForUpdate(ctx context.Context, tx usecase.Transaction, externalID string) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if err := r.store.acquire(ctx, t, accountLockKey(externalID)); err != nil {
		return nil, err
	}

	if acc, ok := t.accounts[externalID]; ok {
		out := *acc
		return &out, nil
	}

	return r.GetByExternalID(ctx, externalID)
}

// UpdateBalance buffers a balance write. The row must be locked by tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, externalID string, balance int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if !t.holds(accountLockKey(externalID)) {
		return fmt.Errorf("memory: balance write to %s without row lock", externalID)
	}

	if balance < 0 {
		return fmt.Errorf("memory: negative balance %d for %s", balance, externalID)
	}

	acc, ok := t.accounts[externalID]
	if !ok {
		current, err := r.GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		acc = current
		t.accounts[externalID] = acc
	}

	acc.Balance = balance
	acc.UpdatedAt = updatedAt
	return nil
}

// List lists accounts ordered by external id.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts := make([]*domain.Account, 0, limit)
	for i := offset; i < len(ids) && len(accounts) < limit; i++ {
		acc := *s.accounts[ids[i]]
		accounts = append(accounts, &acc)
	}

	return accounts, nil
}

// CatalogRepository implements usecase.CatalogRepository.
type CatalogRepository struct {
	store *Store
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// Create adds an item to the catalog.
func (r *CatalogRepository) Create(_ context.Context, item *domain.CatalogItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.Name]; exists {
		return domain.ErrItemAlreadyExists
	}

	row := *item
	s.items[item.Name] = &row
	s.itemOrder = append(s.itemOrder, item.Name)
	return nil
}

// GetByName retrieves an item by case-insensitive name.
func (r *CatalogRepository) GetByName(_ context.Context, name string) (*domain.CatalogItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[domain.NormalizeItemName(name)]
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	out := *item
	return &out, nil
}

// List lists items in insertion order.
func (r *CatalogRepository) List(_ context.Context) ([]*domain.CatalogItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*domain.CatalogItem, 0, len(s.itemOrder))
	for _, name := range s.itemOrder {
		item := *s.items[name]
		items = append(items, &item)
	}

	return items, nil
}

// OwnershipRepository implements usecase.OwnershipRepository.
type OwnershipRepository struct {
	store *Store
}

// NewOwnershipRepository creates a new OwnershipRepository.
func NewOwnershipRepository(store *Store) *OwnershipRepository {
	return &OwnershipRepository{store: store}
}

func (r *OwnershipRepository) find(t *Tx, accountID, itemID string) *domain.Ownership {
	for _, o := range t.ownerships {
		if o.AccountID == accountID && o.ItemID == itemID {
			return o
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.ownerships {
		if o.AccountID == accountID && o.ItemID == itemID {
			row := *o
			return &row
		}
	}

	return nil
}

// GetForUpdate locks the (account, item) pair and returns its ownership row, if any.
func (r *OwnershipRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, itemID string) (*domain.Ownership, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if err := r.store.acquire(ctx, t, ownershipLockKey(accountID, itemID)); err != nil {
		return nil, err
	}

	o := r.find(t, accountID, itemID)
	if o == nil {
		return nil, nil
	}

	out := *o
	return &out, nil
}

// UpsertIncrement increments the pair's quantity or inserts ownership with quantity by.
func (r *OwnershipRepository) UpsertIncrement(_ context.Context, tx usecase.Transaction, ownership *domain.Ownership, by int64, updatedAt time.Time) (int64, error) {
	t, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	if !t.holds(ownershipLockKey(ownership.AccountID, ownership.ItemID)) {
		return 0, fmt.Errorf("memory: ownership write without row lock")
	}

	row := r.find(t, ownership.AccountID, ownership.ItemID)
	if row == nil {
		inserted := *ownership
		inserted.Quantity = 0
		row = &inserted
	}

	row.Quantity += by
	row.UpdatedAt = updatedAt
	t.ownerships[row.ID] = row

	return row.Quantity, nil
}

// ListForAccount lists inventory lines ordered by item name.
func (r *OwnershipRepository) ListForAccount(_ context.Context, accountID string) ([]domain.InventoryLine, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]string, len(s.items))
	for name, item := range s.items {
		names[item.ID] = name
	}

	lines := make([]domain.InventoryLine, 0)
	for _, o := range s.ownerships {
		if o.AccountID == accountID {
			lines = append(lines, domain.InventoryLine{ItemName: names[o.ItemID], Quantity: o.Quantity})
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemName < lines[j].ItemName })

	return lines, nil
}

// CountRows returns the number of ownership rows for the pair.
func (r *OwnershipRepository) CountRows(accountID, itemID string) int {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, o := range s.ownerships {
		if o.AccountID == accountID && o.ItemID == itemID {
			n++
		}
	}
	return n
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create buffers a journal entry in tx.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	e := *entry
	t.entries = append(t.entries, &e)
	return nil
}

// GetByAccount lists committed entries of an account, newest first.
func (r *EntryRepository) GetByAccount(_ context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			matched = append(matched, s.entries[i])
		}
	}

	entries := make([]*domain.Entry, 0, limit)
	for i := offset; i < len(matched) && len(entries) < limit; i++ {
		e := *matched[i]
		entries = append(entries, &e)
	}

	return entries, nil
}

// SumByAccount sums committed entry amounts of an account.
func (r *EntryRepository) SumByAccount(_ context.Context, accountID string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, e := range s.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}

	return sum, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency returns the total of all balances and of all entry amounts.
func (r *LedgerRepository) CheckConsistency(_ context.Context) (int64, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var balances, entries int64
	for _, a := range s.accounts {
		balances += a.Balance
	}
	for _, e := range s.entries {
		entries += e.Amount
	}

	return balances, entries, nil
}
