package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Validation constants
const (
	MaxExternalIDLength = 64
	MaxItemNameLength   = 64
	MaxAmount           = int64(1_000_000_000) // 1 billion units per operation
	MaxPrice            = MaxAmount
	DefaultPageSize     = 20
	MaxPageSize         = 100
)

// ValidateAmount validates a credit/debit/transfer amount
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if amount > MaxAmount {
		return fmt.Errorf("%w: maximum amount is %d", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateExternalID validates an opaque chat identity.
func ValidateExternalID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidExternalID)
	}

	if len(id) > MaxExternalIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidExternalID, MaxExternalIDLength)
	}

	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: id contains whitespace", ErrInvalidExternalID)
	}

	return nil
}

// ValidateItemName validates an already normalized item name
func ValidateItemName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidItemName)
	}

	if len(name) > MaxItemNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidItemName, MaxItemNameLength)
	}

	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: name contains whitespace", ErrInvalidItemName)
	}

	if name != NormalizeItemName(name) {
		return fmt.Errorf("%w: name must be lowercase", ErrInvalidItemName)
	}

	return nil
}

// ValidatePrice validates an item price
func ValidatePrice(price int64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}

	if price > MaxPrice {
		return fmt.Errorf("%w: maximum price is %d", ErrInvalidPrice, MaxPrice)
	}

	return nil
}

// ValidatePagination applies the default page size, caps the limit and rejects
// negative offsets.
func ValidatePagination(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset %d is negative", ErrInvalidPagination, offset)
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}

	return min(limit, MaxPageSize), offset, nil
}
