package audit

import (
	"time"

	"chainpass/pkg/domain"
)

// Actions recorded in the registry event log.
const (
	ActionRegistered    = "identity.registered"
	ActionDeactivated   = "identity.deactivated"
	ActionAuthenticated = "identity.authenticated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time      `json:"timestamp"`
	OwnerAddress domain.Address `json:"owner_address"`
	Name         string         `json:"name"`
	Email        domain.Email   `json:"email"`
	Action       string         `json:"action"`
	Device       string         `json:"device,omitempty"`
}
