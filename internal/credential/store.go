package credential

import (
	"context"

	"chainpass/pkg/domain"
)

// Store maps an email to its single credential record.
//
// Put overwrites unconditionally; callers that need "no duplicate
// registration" must check Exists first (the ceremony's begin phase does).
// UpdateCounter accepts whatever value the caller supplies. IncrementCounter
// advances the stored counter by one atomically and returns the new value;
// it is what authentication uses, so two in-flight ceremonies for the same
// email can never lose an increment.
type Store interface {
	Put(ctx context.Context, record Record) error
	Get(ctx context.Context, email domain.Email) (Record, error)
	Exists(ctx context.Context, email domain.Email) (bool, error)
	UpdateCounter(ctx context.Context, email domain.Email, newCounter uint32) error
	IncrementCounter(ctx context.Context, email domain.Email) (uint32, error)
}
