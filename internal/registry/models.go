package registry

import (
	"time"

	"chainpass/pkg/domain"
)

// Record is one identity entry in the append-only registry. OwnerAddress is
// the primary key and immutable once set; identity fields are never updated
// in place.
type Record struct {
	Name         string
	Email        domain.Email
	IDHash       domain.IDHash
	OwnerAddress domain.Address
	RegisteredAt time.Time
	Active       bool
}
