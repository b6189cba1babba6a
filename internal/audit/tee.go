package audit

import (
	"context"

	"chainpass/pkg/domain"
)

// Tee wraps the durable store and mirrors every appended event onto a
// channel for the background worker. The mirror is best-effort: when the
// channel is full the event is dropped rather than blocking the caller,
// since the durable append already succeeded.
type Tee struct {
	store  Store
	mirror chan<- Event
}

func NewTee(store Store, mirror chan<- Event) *Tee {
	return &Tee{store: store, mirror: mirror}
}

func (t *Tee) Append(ctx context.Context, event Event) error {
	if err := t.store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case t.mirror <- event:
	default:
	}
	return nil
}

func (t *Tee) ListByOwner(ctx context.Context, owner domain.Address) ([]Event, error) {
	return t.store.ListByOwner(ctx, owner)
}
