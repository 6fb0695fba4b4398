package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/coinledger/internal/domain"
)

// PostgreSQL error codes translated into domain errors.
const (
	pgErrUniqueViolation  = "23505"
	pgErrLockNotAvailable = "55P03"
	pgErrQueryCanceled    = "57014"
)

// translateError maps driver failures onto domain error kinds, keeping the cause in
// the chain. onUnique, when set, replaces a unique violation.
func translateError(err error, onUnique error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			if onUnique != nil {
				return onUnique
			}
		case pgErrLockNotAvailable, pgErrQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrBusy, err)
		}
		return err
	}

	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrBusy, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	return err
}
