package domain

import (
	"math"
	"time"
)

// DefaultStartingBalance is credited to every newly registered account.
const DefaultStartingBalance int64 = 1000

// Account represents a ledger identity holding a balance in whole currency units.
type Account struct {
	ExternalID string
	Balance    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount int64) error {
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks that crediting amount does not overflow the balance.
func (a *Account) ValidateCredit(amount int64) error {
	if a.Balance > math.MaxInt64-amount {
		return ErrAmountTooLarge
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount int64) int64 {
	return a.Balance - amount
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount int64) int64 {
	return a.Balance + amount
}
