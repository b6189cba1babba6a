package audit

import (
	"context"

	"chainpass/pkg/domain"
)

// Store is the append-only persistence contract for the event log. External
// auditors and indexers read through ListByOwner; nothing deletes entries.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, owner domain.Address) ([]Event, error)
}
