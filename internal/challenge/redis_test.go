package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainpass/internal/platform/config"
	platformredis "chainpass/internal/platform/redis"
	"chainpass/pkg/platform/sentinel"
)

func newRedisLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := platformredis.New(config.RedisConfig{
		URL:          "redis://" + mr.Addr(),
		PoolSize:     2,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client), mr
}

func Test_RedisLedger_IssueAndConsume(t *testing.T) {
	ledger, _ := newRedisLedger(t)
	ctx := context.Background()

	p, err := ledger.Issue(ctx, "a@x.com", "Alice", time.Minute)
	require.NoError(t, err)
	require.Len(t, p.Challenge, ChallengeSize)

	got, err := ledger.Consume(ctx, p.Key)
	require.NoError(t, err)
	assert.Equal(t, p.Challenge, got.Challenge)
	assert.Equal(t, p.Email, got.Email)

	_, err = ledger.Consume(ctx, p.Key)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func Test_RedisLedger_TTLEviction(t *testing.T) {
	ledger, mr := newRedisLedger(t)
	ctx := context.Background()

	p, err := ledger.Issue(ctx, "a@x.com", "", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = ledger.Consume(ctx, p.Key)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func Test_RedisLedger_ExpiredBeforeEviction(t *testing.T) {
	ledger, _ := newRedisLedger(t)
	ctx := context.Background()

	p, err := ledger.Issue(ctx, "a@x.com", "", time.Minute)
	require.NoError(t, err)

	// Key still present in Redis, but our clock says the challenge is past
	// its expiry.
	ledger.clock = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = ledger.Consume(ctx, p.Key)
	require.ErrorIs(t, err, sentinel.ErrExpired)
}
