package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one ledger transaction, lock waits and retries included.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a handled message id is remembered.
	IdempotencyKeyTTL = 24 * time.Hour

	reconcilePageSize = 500
)
