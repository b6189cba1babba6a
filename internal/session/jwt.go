package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "chainpass/pkg/domain-errors"
)

// AuthMethodBiometric is the auth_method claim value for tokens minted by
// the authentication ceremony.
const AuthMethodBiometric = "biometric"

// Claims represents the JWT claims for our session tokens. Validity is
// entirely determined by signature and expiry; there is no server-side
// session record or revocation list.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	AuthMethod string `json:"auth_method"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies signed session tokens. The signing key is
// process-wide configuration, loaded once at startup.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      func() time.Time
}

func NewIssuer(signingKey string, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clock:      time.Now,
	}
}

// Issue produces a signed token embedding the identity claims with the
// configured expiry.
func (s *Issuer) Issue(email, name, authMethod string) (string, error) {
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:      email,
		Name:       name,
		AuthMethod: authMethod,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (s *Issuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.clock() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeExpired, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}
