package postgres

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues ULIDs for items, ownership rows and entries. Ids taken later
// sort after earlier ones, which keeps journal order stable within one timestamp.
type ULIDGenerator struct {
	now func() time.Time
}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{now: time.Now}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.MustNew(ulid.Timestamp(g.now()), ulid.DefaultEntropy()).String()
}
