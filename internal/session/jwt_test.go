package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "chainpass/pkg/domain-errors"
)

func newTestIssuer(ttl time.Duration) *Issuer {
	return NewIssuer("test-signing-key", "chainpass-test", ttl)
}

func Test_Issue_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(24 * time.Hour)

	token, err := issuer.Issue("a@x.com", "Alice Example", AuthMethodBiometric)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Alice Example", claims.Name)
	assert.Equal(t, AuthMethodBiometric, claims.AuthMethod)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Verify_InvalidToken(t *testing.T) {
	issuer := newTestIssuer(time.Hour)
	_, err := issuer.Verify("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_Verify_WrongKey(t *testing.T) {
	token, err := newTestIssuer(time.Hour).Issue("a@x.com", "Alice", AuthMethodBiometric)
	require.NoError(t, err)

	other := NewIssuer("different-key", "chainpass-test", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_Verify_RespectsExpiryBoundary(t *testing.T) {
	issuer := newTestIssuer(24 * time.Hour)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	issuer.clock = func() time.Time { return issued }
	token, err := issuer.Issue("a@x.com", "Alice", AuthMethodBiometric)
	require.NoError(t, err)

	// Accepted shortly before expiry.
	issuer.clock = func() time.Time { return issued.Add(24*time.Hour - time.Minute) }
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	// Rejected after expiry.
	issuer.clock = func() time.Time { return issued.Add(24*time.Hour + time.Minute) }
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeExpired, "token has expired"))
}
