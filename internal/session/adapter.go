package session

import "chainpass/internal/platform/middleware"

// MiddlewareAdapter exposes the issuer through the middleware's
// SessionVerifier interface without the middleware importing this package.
type MiddlewareAdapter struct {
	issuer *Issuer
}

func NewMiddlewareAdapter(issuer *Issuer) *MiddlewareAdapter {
	return &MiddlewareAdapter{issuer: issuer}
}

func (a *MiddlewareAdapter) Verify(token string) (*middleware.SessionClaims, error) {
	claims, err := a.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	return &middleware.SessionClaims{
		Email:      claims.Email,
		Name:       claims.Name,
		AuthMethod: claims.AuthMethod,
	}, nil
}
