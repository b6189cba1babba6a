// Package ceremony drives the two-phase biometric registration and
// authentication exchanges: begin mints a challenge, complete validates the
// client's response against it. Every looked-up challenge is consumed
// exactly once, success or failure, so a stale response can never be
// replayed against the same challenge.
package ceremony

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chainpass/internal/audit"
	"chainpass/internal/challenge"
	"chainpass/internal/credential"
	"chainpass/internal/platform/metrics"
	"chainpass/internal/registry"
	"chainpass/internal/session"
	"chainpass/pkg/domain"
	dErrors "chainpass/pkg/domain-errors"
	"chainpass/pkg/platform/sentinel"
	"chainpass/pkg/requestcontext"
)

// IdentityDirectory resolves an email to its on-chain registry record so
// authentication events can name the owner address. The registry service's
// store satisfies it.
type IdentityDirectory interface {
	FindByEmail(ctx context.Context, email domain.Email) (registry.Record, error)
}

// Config carries the relying-party settings the ceremonies are scoped to.
type Config struct {
	RPName         string
	RPID           string
	ExpectedOrigin string
	ChallengeTTL   time.Duration
}

// Service is the ceremony state machine. It owns no storage: credentials,
// challenges, and sessions all live behind their package contracts.
type Service struct {
	cfg         Config
	credentials credential.Store
	challenges  challenge.Ledger
	sessions    *session.Issuer
	identities  IdentityDirectory
	auditor     *audit.Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func NewService(
	cfg Config,
	credentials credential.Store,
	challenges challenge.Ledger,
	sessions *session.Issuer,
	identities IdentityDirectory,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cfg:         cfg,
		credentials: credentials,
		challenges:  challenges,
		sessions:    sessions,
		identities:  identities,
		auditor:     auditor,
		logger:      logger,
		metrics:     m,
	}
}

// BeginRegistration starts a registration ceremony for a new credential.
func (s *Service) BeginRegistration(ctx context.Context, rawEmail, name string) (RegistrationOptions, error) {
	ctx, span := otel.Tracer("ceremony").Start(ctx, "ceremony.BeginRegistration",
		trace.WithAttributes(attribute.String("ceremony.kind", "registration")))
	defer span.End()

	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return RegistrationOptions{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return RegistrationOptions{}, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}

	exists, err := s.credentials.Exists(ctx, email)
	if err != nil {
		return RegistrationOptions{}, dErrors.Wrap(dErrors.CodeInternal, "failed to check credential", err)
	}
	if exists {
		s.metrics.ObserveCeremony("registration", "duplicate")
		return RegistrationOptions{}, dErrors.New(dErrors.CodeConflict, "credential already registered")
	}

	pending, err := s.challenges.Issue(ctx, email, name, s.cfg.ChallengeTTL)
	if err != nil {
		return RegistrationOptions{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue challenge", err)
	}
	span.SetAttributes(attribute.String("ceremony.challenge_key", pending.Key))

	return RegistrationOptions{
		ChallengeKey: pending.Key,
		Challenge:    encodeChallenge(pending.Challenge),
		RelyingParty: RelyingParty{Name: s.cfg.RPName, ID: s.cfg.RPID},
		UserEmail:    email.String(),
		UserName:     name,
	}, nil
}

// CompleteRegistration validates the authenticator's response and persists
// the new credential with a zero signature counter.
func (s *Service) CompleteRegistration(ctx context.Context, challengeKey string, response CredentialResponse) error {
	ctx, span := otel.Tracer("ceremony").Start(ctx, "ceremony.CompleteRegistration",
		trace.WithAttributes(attribute.String("ceremony.kind", "registration")))
	defer span.End()

	pending, err := s.consume(ctx, challengeKey)
	if err != nil {
		s.metrics.ObserveCeremony("registration", "challenge_failure")
		return err
	}

	if err := s.validateResponse(pending, response, true); err != nil {
		s.metrics.ObserveCeremony("registration", "rejected")
		s.logger.WarnContext(ctx, "registration ceremony rejected",
			"email", pending.Email,
			"error", err,
			"device", requestcontext.Device(ctx),
		)
		return err
	}

	record := credential.Record{
		CredentialID: response.ID,
		PublicKey:    response.PublicKey,
		SignCount:    0,
		OwnerEmail:   pending.Email,
		OwnerName:    pending.Name,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.credentials.Put(ctx, record); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to store credential", err)
	}

	s.metrics.ObserveCeremony("registration", "success")
	s.logger.InfoContext(ctx, "credential registered",
		"email", pending.Email,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// BeginAuthentication starts an authentication ceremony for a registered
// credential. No challenge is issued when the email is unknown.
func (s *Service) BeginAuthentication(ctx context.Context, rawEmail string) (AuthenticationOptions, error) {
	ctx, span := otel.Tracer("ceremony").Start(ctx, "ceremony.BeginAuthentication",
		trace.WithAttributes(attribute.String("ceremony.kind", "authentication")))
	defer span.End()

	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return AuthenticationOptions{}, err
	}

	stored, err := s.credentials.Get(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AuthenticationOptions{}, dErrors.New(dErrors.CodeNotFound, "no credential registered for email")
		}
		return AuthenticationOptions{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load credential", err)
	}

	pending, err := s.challenges.Issue(ctx, email, "", s.cfg.ChallengeTTL)
	if err != nil {
		return AuthenticationOptions{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue challenge", err)
	}

	return AuthenticationOptions{
		ChallengeKey:         pending.Key,
		Challenge:            encodeChallenge(pending.Challenge),
		RelyingPartyID:       s.cfg.RPID,
		AllowedCredentialIDs: []string{stored.CredentialID},
	}, nil
}

// CompleteAuthentication validates the assertion, advances the stored
// signature counter by exactly one, and mints a session token.
func (s *Service) CompleteAuthentication(ctx context.Context, challengeKey string, response CredentialResponse) (AuthenticationResult, error) {
	ctx, span := otel.Tracer("ceremony").Start(ctx, "ceremony.CompleteAuthentication",
		trace.WithAttributes(attribute.String("ceremony.kind", "authentication")))
	defer span.End()

	pending, err := s.consume(ctx, challengeKey)
	if err != nil {
		s.metrics.ObserveCeremony("authentication", "challenge_failure")
		return AuthenticationResult{}, err
	}

	if err := s.validateResponse(pending, response, false); err != nil {
		s.metrics.ObserveCeremony("authentication", "rejected")
		s.logger.WarnContext(ctx, "authentication ceremony rejected",
			"email", pending.Email,
			"error", err,
			"device", requestcontext.Device(ctx),
		)
		return AuthenticationResult{}, err
	}

	stored, err := s.credentials.Get(ctx, pending.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AuthenticationResult{}, dErrors.New(dErrors.CodeNotFound, "no credential registered for email")
		}
		return AuthenticationResult{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load credential", err)
	}
	if response.ID != stored.CredentialID {
		s.metrics.ObserveCeremony("authentication", "rejected")
		return AuthenticationResult{}, dErrors.New(dErrors.CodeCredentialMismatch, "credential id mismatch")
	}

	// The server-held counter is authoritative; whatever counter the
	// client asserted is ignored. The store performs the increment so two
	// in-flight authentications cannot both observe the same value.
	if _, err := s.credentials.IncrementCounter(ctx, pending.Email); err != nil {
		return AuthenticationResult{}, dErrors.Wrap(dErrors.CodeInternal, "failed to advance signature counter", err)
	}

	token, err := s.sessions.Issue(stored.OwnerEmail.String(), stored.OwnerName, session.AuthMethodBiometric)
	if err != nil {
		return AuthenticationResult{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue session token", err)
	}

	s.metrics.ObserveCeremony("authentication", "success")
	s.metrics.IncrementSessionsIssued()
	s.emitAuthenticated(ctx, stored)

	return AuthenticationResult{
		Token: token,
		Email: stored.OwnerEmail.String(),
		Name:  stored.OwnerName,
	}, nil
}

// consume translates ledger sentinels into the ceremony error taxonomy.
func (s *Service) consume(ctx context.Context, challengeKey string) (challenge.Pending, error) {
	if challengeKey == "" {
		return challenge.Pending{}, dErrors.New(dErrors.CodeInvalidInput, "challenge key is required")
	}
	pending, err := s.challenges.Consume(ctx, challengeKey)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return challenge.Pending{}, dErrors.New(dErrors.CodeNotFound, "challenge not found")
		case errors.Is(err, sentinel.ErrExpired):
			return challenge.Pending{}, dErrors.New(dErrors.CodeExpired, "challenge expired")
		default:
			return challenge.Pending{}, dErrors.Wrap(dErrors.CodeInternal, "failed to consume challenge", err)
		}
	}
	return pending, nil
}

// validateResponse applies the simplified verification contract: required
// fields present, challenge equality, origin equality. Nothing here checks
// signatures or attestation chains.
func (s *Service) validateResponse(pending challenge.Pending, response CredentialResponse, registration bool) error {
	if response.ID == "" || response.ClientData.Challenge == "" || response.ClientData.Origin == "" {
		return dErrors.New(dErrors.CodeMalformedCredential, "missing required credential fields")
	}
	if registration && len(response.PublicKey) == 0 {
		return dErrors.New(dErrors.CodeMalformedCredential, "missing required credential fields")
	}
	if response.ClientData.Challenge != encodeChallenge(pending.Challenge) {
		return dErrors.New(dErrors.CodeChallengeMismatch, "challenge mismatch")
	}
	if response.ClientData.Origin != s.cfg.ExpectedOrigin {
		return dErrors.New(dErrors.CodeOriginMismatch, "origin mismatch")
	}
	return nil
}

func (s *Service) emitAuthenticated(ctx context.Context, stored credential.Record) {
	if s.identities == nil || s.auditor == nil {
		return
	}
	record, err := s.identities.FindByEmail(ctx, stored.OwnerEmail)
	if err != nil {
		// Credential holders without an on-chain record authenticate
		// fine; there is just no owner address to log against.
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		OwnerAddress: record.OwnerAddress,
		Name:         stored.OwnerName,
		Email:        stored.OwnerEmail,
		Action:       audit.ActionAuthenticated,
		Device:       requestcontext.Device(ctx),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit authentication event",
			"email", stored.OwnerEmail,
			"error", err,
		)
	}
}

func encodeChallenge(challengeBytes []byte) string {
	return base64.RawURLEncoding.EncodeToString(challengeBytes)
}
