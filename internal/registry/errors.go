package registry

import (
	"fmt"

	"chainpass/pkg/platform/sentinel"
)

// Store-level uniqueness violations. Each wraps the matching sentinel so
// generic infrastructure code can still branch on sentinel.ErrConflict /
// sentinel.ErrAlreadyUsed, while the service distinguishes which field
// collided.
var (
	ErrAddressTaken = fmt.Errorf("owner address: %w", sentinel.ErrConflict)
	ErrEmailTaken   = fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
	ErrIDHashTaken  = fmt.Errorf("id hash: %w", sentinel.ErrAlreadyUsed)
)
