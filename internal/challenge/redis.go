package challenge

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	platformredis "chainpass/internal/platform/redis"
	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
)

const redisKeyPrefix = "challenge:"

// RedisLedger stores pending challenges in Redis, delegating expiry to
// native key TTLs. GETDEL makes consume a single atomic check-and-delete
// across all server instances, so no background sweep is needed.
type RedisLedger struct {
	client *platformredis.Client
	clock  func() time.Time
	rand   io.Reader
}

func NewRedisLedger(client *platformredis.Client) *RedisLedger {
	return &RedisLedger{
		client: client,
		clock:  time.Now,
		rand:   rand.Reader,
	}
}

func (l *RedisLedger) Issue(ctx context.Context, email domain.Email, name string, ttl time.Duration) (Pending, error) {
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

	payload, err := json.Marshal(p)
	if err != nil {
		return Pending{}, fmt.Errorf("marshal challenge: %w", err)
	}
	if err := l.client.Set(ctx, redisKeyPrefix+p.Key, payload, ttl).Err(); err != nil {
		return Pending{}, fmt.Errorf("store challenge: %w", err)
	}
	return p, nil
}

func (l *RedisLedger) Consume(ctx context.Context, key string) (Pending, error) {
	payload, err := l.client.GetDel(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Pending{}, sentinel.ErrNotFound
		}
		return Pending{}, fmt.Errorf("consume challenge: %w", err)
	}

	var p Pending
	if err := json.Unmarshal(payload, &p); err != nil {
		return Pending{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	// Redis TTL normally removes late entries first; this guards the
	// window between expiry and eviction.
	if l.clock().After(p.ExpiresAt) {
		return Pending{}, sentinel.ErrExpired
	}
	return p, nil
}
