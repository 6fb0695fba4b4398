package domain

import (
	"strings"
	"time"
)

// CatalogItem is a purchasable item definition.
type CatalogItem struct {
	ID        string
	Name      string
	Price     int64
	CreatedAt time.Time
}

// NormalizeItemName returns the canonical form under which item names are stored
// and looked up.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate validates a catalog item before it is stored.
func (i *CatalogItem) Validate() error {
	if err := ValidateItemName(i.Name); err != nil {
		return err
	}
	return ValidatePrice(i.Price)
}
