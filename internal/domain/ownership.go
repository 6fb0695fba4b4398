package domain

import "time"

// Ownership records how many units of an item an account holds.
// At most one row exists per (AccountID, ItemID).
type Ownership struct {
	ID        string
	AccountID string
	ItemID    string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InventoryLine is one row of an account's inventory listing.
type InventoryLine struct {
	ItemName string
	Quantity int64
}
