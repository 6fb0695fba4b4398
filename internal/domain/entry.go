package domain

import "time"

// EntryKind classifies a journal entry.
type EntryKind string

const (
	EntryKindRegister    EntryKind = "register"
	EntryKindCredit      EntryKind = "credit"
	EntryKindDebit       EntryKind = "debit"
	EntryKindTransferIn  EntryKind = "transfer_in"
	EntryKindTransferOut EntryKind = "transfer_out"
	EntryKindPurchase    EntryKind = "purchase"
)

// Entry records a single balance change. It is written in the same transaction as
// the balance update it describes, so the sum of an account's entry amounts always
// equals its balance.
type Entry struct {
	CreatedAt       time.Time
	ID              string
	AccountID       string
	Kind            EntryKind
	Reference       string
	Amount          int64
	PreviousBalance int64
	CurrentBalance  int64
}
