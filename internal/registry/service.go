package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"chainpass/internal/audit"
	"chainpass/internal/platform/metrics"
	"chainpass/pkg/domain"
	dErrors "chainpass/pkg/domain-errors"
	"chainpass/pkg/platform/sentinel"
	"chainpass/pkg/requestcontext"
)

// Service owns the registry's business rules: input validation, uniqueness
// translation, and the durable registration event. Storage is behind the
// Store contract so the in-memory and Postgres implementations swap freely.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, auditor: auditor, logger: logger, metrics: m}
}

// RegisterInput carries the raw, unvalidated fields of a registration call.
// Callers supply either a pre-computed IDHash or the raw NationalID; with the
// latter the service derives the digest itself and the raw number is never
// stored.
type RegisterInput struct {
	Name         string
	Email        string
	IDHash       string
	NationalID   string
	OwnerAddress string
}

// Register validates input, appends the record, and emits the registration
// event. The operation is irreversible: no update-in-place exists.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Record, error) {
	ctx, span := otel.Tracer("registry").Start(ctx, "registry.Register")
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	email, err := domain.ParseEmail(input.Email)
	if err != nil {
		return Record{}, err
	}
	idHash, err := resolveIDHash(input)
	if err != nil {
		return Record{}, err
	}
	owner, err := domain.ParseAddress(input.OwnerAddress)
	if err != nil {
		return Record{}, err
	}
	span.SetAttributes(attribute.String("registry.owner", owner.String()))

	record := Record{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		IDHash:       idHash,
		OwnerAddress: owner,
		RegisteredAt: requestcontext.Now(ctx),
		Active:       true,
	}

	if err := s.store.Create(ctx, record); err != nil {
		return Record{}, translateUniqueness(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Timestamp:    record.RegisteredAt,
		OwnerAddress: owner,
		Name:         record.Name,
		Email:        email,
		Action:       audit.ActionRegistered,
		Device:       requestcontext.Device(ctx),
	}); err != nil {
		// The registration itself stands; a lost audit entry is a
		// serious but separate failure.
		s.logger.ErrorContext(ctx, "failed to emit registration event",
			"owner", owner,
			"error", err,
		)
	}

	s.metrics.IncrementRegistrations()
	s.logger.InfoContext(ctx, "identity registered",
		"owner", owner,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// translateUniqueness gives each colliding field its own code so callers
// branch on codes rather than message text.
func translateUniqueness(err error) error {
	switch {
	case errors.Is(err, ErrAddressTaken):
		return dErrors.New(dErrors.CodeAlreadyRegistered, "address already registered")
	case errors.Is(err, ErrEmailTaken):
		return dErrors.New(dErrors.CodeEmailTaken, "email already in use")
	case errors.Is(err, ErrIDHashTaken):
		return dErrors.New(dErrors.CodeIDHashTaken, "id hash already in use")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "failed to register identity", err)
	}
}

// resolveIDHash accepts either a pre-computed digest or the raw national ID,
// hashing the latter server-side.
func resolveIDHash(input RegisterInput) (domain.IDHash, error) {
	rawHash := strings.TrimSpace(input.IDHash)
	nationalID := strings.TrimSpace(input.NationalID)
	switch {
	case rawHash != "" && nationalID != "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "provide id_hash or national_id, not both")
	case nationalID != "":
		return domain.HashNationalID(nationalID), nil
	default:
		return domain.ParseIDHash(rawHash)
	}
}

// Get returns the active record for an address.
func (s *Service) Get(ctx context.Context, ownerAddress string) (Record, error) {
	owner, err := domain.ParseAddress(ownerAddress)
	if err != nil {
		return Record{}, err
	}
	record, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load identity", err)
	}
	return record, nil
}

// Exists never fails on lookup problems; an unreadable store reports false
// and the caller retries at its own pace.
func (s *Service) Exists(ctx context.Context, ownerAddress string) bool {
	owner, err := domain.ParseAddress(ownerAddress)
	if err != nil {
		return false
	}
	if _, err := s.store.FindByOwner(ctx, owner); err != nil {
		return false
	}
	return true
}

// ListActive enumerates active records in registration order. Administrative
// use only.
func (s *Service) ListActive(ctx context.Context) ([]Record, error) {
	records, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list identities", err)
	}
	return records, nil
}

// CountActive reports the number of active records.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	count, err := s.store.CountActive(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to count identities", err)
	}
	return count, nil
}

// Deactivate flips a record inactive, freeing its email and id-hash for a
// future re-registration. The registration event trail is untouched.
func (s *Service) Deactivate(ctx context.Context, ownerAddress string) error {
	ctx, span := otel.Tracer("registry").Start(ctx, "registry.Deactivate")
	defer span.End()

	owner, err := domain.ParseAddress(ownerAddress)
	if err != nil {
		return err
	}
	record, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to load identity", err)
	}
	if err := s.store.Deactivate(ctx, owner); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to deactivate identity", err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		OwnerAddress: owner,
		Name:         record.Name,
		Email:        record.Email,
		Action:       audit.ActionDeactivated,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit deactivation event",
			"owner", owner,
			"error", err,
		)
	}
	return nil
}
