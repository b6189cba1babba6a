package challenge

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
)

// MemoryLedger keeps pending challenges in process memory. The clock and
// randomness source are injectable so tests control expiry and challenge
// values deterministically.
type MemoryLedger struct {
	mu      sync.Mutex
	pending map[string]Pending
	clock   func() time.Time
	rand    io.Reader
}

// Option tunes a MemoryLedger; production code uses the defaults.
type Option func(*MemoryLedger)

func WithClock(clock func() time.Time) Option {
	return func(l *MemoryLedger) { l.clock = clock }
}

func WithRand(r io.Reader) Option {
	return func(l *MemoryLedger) { l.rand = r }
}

func NewMemoryLedger(opts ...Option) *MemoryLedger {
	l := &MemoryLedger{
		pending: make(map[string]Pending),
		clock:   time.Now,
		rand:    rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLedger) Issue(_ context.Context, email domain.Email, name string, ttl time.Duration) (Pending, error) {
	bytes := make([]byte, ChallengeSize)
	if _, err := io.ReadFull(l.rand, bytes); err != nil {
		return Pending{}, fmt.Errorf("generate challenge: %w", err)
	}

	p := Pending{
		Key:       uuid.NewString(),
		Challenge: bytes,
		Email:     email,
		Name:      name,
		ExpiresAt: l.clock().Add(ttl),
	}

	l.mu.Lock()
	l.pending[p.Key] = p
	l.mu.Unlock()
	return p, nil
}

// Consume is a single atomic check-and-delete. When two completes race on
// the same key, exactly one gets the entry; the other sees ErrNotFound.
func (l *MemoryLedger) Consume(_ context.Context, key string) (Pending, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pending[key]
	if !ok {
		return Pending{}, sentinel.ErrNotFound
	}
	delete(l.pending, key)

	if l.clock().After(p.ExpiresAt) {
		return Pending{}, sentinel.ErrExpired
	}
	return p, nil
}

// Sweep removes every entry whose expiry has passed and reports how many
// were dropped. The ledger mutex serializes it against concurrent consumes.
func (l *MemoryLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	swept := 0
	for key, p := range l.pending {
		if now.After(p.ExpiresAt) {
			delete(l.pending, key)
			swept++
		}
	}
	return swept
}

// Len reports the number of outstanding challenges.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
