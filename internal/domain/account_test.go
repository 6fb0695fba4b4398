package domain

import (
	"errors"
	"math"
	"testing"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		debitAmount int64
		expectError error
	}{
		{
			name:        "debit more than balance",
			balance:     100,
			debitAmount: 150,
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "debit exact balance",
			balance:     100,
			debitAmount: 100,
		},
		{
			name:        "debit less than balance",
			balance:     100,
			debitAmount: 50,
		},
		{
			name:        "debit from empty account",
			balance:     0,
			debitAmount: 1,
			expectError: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	acc := &Account{Balance: 100}
	if err := acc.ValidateCredit(500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc = &Account{Balance: math.MaxInt64 - 10}
	if err := acc.ValidateCredit(11); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge on overflow, got %v", err)
	}
}

func TestAccount_ApplyDebit(t *testing.T) {
	acc := &Account{Balance: 100}
	if got := acc.ApplyDebit(30); got != 70 {
		t.Errorf("expected balance 70, got %d", got)
	}
}

func TestAccount_ApplyCredit(t *testing.T) {
	acc := &Account{Balance: 100}
	if got := acc.ApplyCredit(30); got != 130 {
		t.Errorf("expected balance 130, got %d", got)
	}
}

func TestTransfer_Validate(t *testing.T) {
	tests := []struct {
		name        string
		fromID      string
		toID        string
		amount      int64
		expectError error
	}{
		{
			name:   "valid transfer",
			fromID: "u1",
			toID:   "u2",
			amount: 100,
		},
		{
			name:        "same account",
			fromID:      "u1",
			toID:        "u1",
			amount:      100,
			expectError: ErrSameAccount,
		},
		{
			name:        "zero amount",
			fromID:      "u1",
			toID:        "u2",
			amount:      0,
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			fromID:      "u1",
			toID:        "u2",
			amount:      -100,
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := &Transfer{
				FromAccountID: tt.fromID,
				ToAccountID:   tt.toID,
				Amount:        tt.amount,
			}

			err := transfer.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestTransfer_LockOrder(t *testing.T) {
	forward := (&Transfer{FromAccountID: "a", ToAccountID: "b"}).LockOrder()
	backward := (&Transfer{FromAccountID: "b", ToAccountID: "a"}).LockOrder()

	if forward[0] != "a" || forward[1] != "b" {
		t.Fatalf("unexpected order %v", forward)
	}
	if backward[0] != forward[0] || backward[1] != forward[1] {
		t.Fatalf("opposite transfers must lock in the same order, got %v and %v", forward, backward)
	}
}
