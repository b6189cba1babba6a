package credential

import (
	"time"

	"chainpass/pkg/domain"
)

// Record is the server-held reference to a client's public-key credential.
// At most one record exists per email. SignCount is maintained server-side
// and must never decrease across authentications.
type Record struct {
	CredentialID string
	PublicKey    []byte
	SignCount    uint32
	OwnerEmail   domain.Email
	OwnerName    string
	RegisteredAt time.Time
}
