package registry

import (
	"context"

	"chainpass/pkg/domain"
)

// Store is the persistence contract for identity records. Implementations
// must make Create's uniqueness checks atomic with the insert: two
// concurrent creates sharing an email, id-hash, or address must not both
// succeed.
//
// Sentinel mapping:
//   - sentinel.ErrConflict: owner address already holds an active record
//   - sentinel.ErrAlreadyUsed: email or id-hash held by another active record
//   - sentinel.ErrNotFound: no active record for the address
type Store interface {
	Create(ctx context.Context, record Record) error
	FindByOwner(ctx context.Context, owner domain.Address) (Record, error)
	FindByEmail(ctx context.Context, email domain.Email) (Record, error)
	ListActive(ctx context.Context) ([]Record, error)
	CountActive(ctx context.Context) (int, error)
	Deactivate(ctx context.Context, owner domain.Address) error
}
