package domain

// Transfer represents a money movement between two accounts.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	return nil
}

// LockOrder returns the two account ids in the canonical order in which their rows
// must be locked.
func (t *Transfer) LockOrder() []string {
	if t.FromAccountID < t.ToAccountID {
		return []string{t.FromAccountID, t.ToAccountID}
	}
	return []string{t.ToAccountID, t.FromAccountID}
}
