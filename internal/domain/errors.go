package domain

import "errors"

// Error kinds. Every sentinel below wraps exactly one kind, so callers may match
// either the precise sentinel or the broader kind with errors.Is.
var (
	ErrKindNotRegistered     = errors.New("not registered")
	ErrKindAlreadyRegistered = errors.New("already registered")
	ErrKindAlreadyExists     = errors.New("already exists")
	ErrKindInvalidArgument   = errors.New("invalid argument")
	ErrKindInsufficientFunds = errors.New("insufficient funds")
	ErrKindItemNotFound      = errors.New("item not found")
	ErrKindBusy              = errors.New("busy")
	ErrKindStoreUnavailable  = errors.New("store unavailable")
)

var (
	// Account errors
	ErrNotRegistered     = newKindError(ErrKindNotRegistered, "account is not registered")
	ErrAlreadyRegistered = newKindError(ErrKindAlreadyRegistered, "account is already registered")
	ErrInsufficientFunds = newKindError(ErrKindInsufficientFunds, "insufficient balance")

	// Catalog errors
	ErrItemNotFound      = newKindError(ErrKindItemNotFound, "item not found")
	ErrItemAlreadyExists = newKindError(ErrKindAlreadyExists, "item already exists")

	// Argument errors
	ErrInvalidAmount     = newKindError(ErrKindInvalidArgument, "amount must be positive")
	ErrAmountTooLarge    = newKindError(ErrKindInvalidArgument, "amount exceeds maximum allowed")
	ErrSameAccount       = newKindError(ErrKindInvalidArgument, "cannot transfer to same account")
	ErrInvalidItemName   = newKindError(ErrKindInvalidArgument, "invalid item name")
	ErrInvalidPrice      = newKindError(ErrKindInvalidArgument, "price must be a positive integer")
	ErrInvalidExternalID = newKindError(ErrKindInvalidArgument, "invalid external id")
	ErrInvalidPagination = newKindError(ErrKindInvalidArgument, "invalid pagination")

	// Store errors
	ErrBusy             = newKindError(ErrKindBusy, "could not acquire lock in time")
	ErrStoreUnavailable = newKindError(ErrKindStoreUnavailable, "ledger store is unavailable")
)

var kinds = []error{
	ErrKindNotRegistered,
	ErrKindAlreadyRegistered,
	ErrKindAlreadyExists,
	ErrKindInvalidArgument,
	ErrKindInsufficientFunds,
	ErrKindItemNotFound,
	ErrKindBusy,
	ErrKindStoreUnavailable,
}

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// errorCodes names the sentinels and kinds with a stable code, most specific first.
var errorCodes = []struct {
	code string
	err  error
}{
	{"not_registered", ErrNotRegistered},
	{"already_registered", ErrAlreadyRegistered},
	{"insufficient_funds", ErrInsufficientFunds},
	{"item_not_found", ErrItemNotFound},
	{"item_already_exists", ErrItemAlreadyExists},
	{"invalid_amount", ErrInvalidAmount},
	{"amount_too_large", ErrAmountTooLarge},
	{"same_account", ErrSameAccount},
	{"invalid_item_name", ErrInvalidItemName},
	{"invalid_price", ErrInvalidPrice},
	{"invalid_external_id", ErrInvalidExternalID},
	{"invalid_pagination", ErrInvalidPagination},
	{"busy", ErrBusy},
	{"store_unavailable", ErrStoreUnavailable},
	{"kind_not_registered", ErrKindNotRegistered},
	{"kind_already_registered", ErrKindAlreadyRegistered},
	{"kind_already_exists", ErrKindAlreadyExists},
	{"kind_invalid_argument", ErrKindInvalidArgument},
	{"kind_insufficient_funds", ErrKindInsufficientFunds},
	{"kind_item_not_found", ErrKindItemNotFound},
	{"kind_busy", ErrKindBusy},
	{"kind_store_unavailable", ErrKindStoreUnavailable},
}

// ErrorCode returns the stable code of the most specific sentinel err matches, or ""
// for errors outside the taxonomy.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorForCode returns the sentinel named by code, or nil for an unknown code.
func ErrorForCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// KindOf returns the error kind err belongs to, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsTransient reports whether the caller may retry the whole command unchanged.
func IsTransient(err error) bool {
	return errors.Is(err, ErrKindBusy) || errors.Is(err, ErrKindStoreUnavailable)
}
