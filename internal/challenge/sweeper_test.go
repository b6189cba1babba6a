package challenge

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainpass/pkg/testutil"
)

func Test_Sweeper_DropsAbandonedChallenges(t *testing.T) {
	clock := newFakeClock()
	ledger := NewMemoryLedger(WithClock(clock.Now))

	testutil.Given(t, "an abandoned challenge past its TTL", func(t *testing.T) {
		_, err := ledger.Issue(context.Background(), "a@x.com", "", time.Minute)
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)

		testutil.When(t, "the sweeper has ticked", func(t *testing.T) {
			sweeper := NewSweeper(ledger, 5*time.Millisecond, slog.New(slog.DiscardHandler), nil)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = sweeper.Run(ctx)

			testutil.Then(t, "the ledger is empty again", func(t *testing.T) {
				assert.Zero(t, ledger.Len())
			})
		})
	})
}
