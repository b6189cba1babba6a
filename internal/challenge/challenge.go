// Package challenge owns the short-lived pending state of biometric
// ceremonies. A challenge is single-use: consumed exactly once, either by
// the ceremony's complete phase (success or failure) or by the background
// sweep once its TTL passes.
package challenge

import (
	"context"
	"time"

	"chainpass/pkg/domain"
)

// ChallengeSize is the length of the random challenge value in bytes.
const ChallengeSize = 32

// Pending is one outstanding ceremony challenge.
type Pending struct {
	Key       string       `json:"key"`
	Challenge []byte       `json:"challenge"`
	Email     domain.Email `json:"email"`
	Name      string       `json:"name,omitempty"` // registration ceremonies only
	ExpiresAt time.Time    `json:"expires_at"`
}

// Ledger issues and atomically consumes pending challenges.
//
// Consume removes the entry as a side effect of every lookup: a second
// consume with the same key fails with sentinel.ErrNotFound, and a late
// consume fails with sentinel.ErrExpired after deleting the entry.
type Ledger interface {
	Issue(ctx context.Context, email domain.Email, name string, ttl time.Duration) (Pending, error)
	Consume(ctx context.Context, key string) (Pending, error)
}
