package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chainpass/internal/ceremony"
	"chainpass/internal/transport/http/shared"
	dErrors "chainpass/pkg/domain-errors"
)

// CeremonyService is what the ceremony handler needs from the domain layer.
type CeremonyService interface {
	BeginRegistration(ctx context.Context, email, name string) (ceremony.RegistrationOptions, error)
	CompleteRegistration(ctx context.Context, challengeKey string, response ceremony.CredentialResponse) error
	BeginAuthentication(ctx context.Context, email string) (ceremony.AuthenticationOptions, error)
	CompleteAuthentication(ctx context.Context, challengeKey string, response ceremony.CredentialResponse) (ceremony.AuthenticationResult, error)
}

type CeremonyHandler struct {
	ceremonies CeremonyService
}

func NewCeremonyHandler(ceremonies CeremonyService) *CeremonyHandler {
	return &CeremonyHandler{ceremonies: ceremonies}
}

// Register wires the four ceremony endpoints. All are public: registration
// is open and authentication is how a session is obtained in the first
// place.
func (h *CeremonyHandler) Register(r chi.Router) {
	r.Route("/webauthn", func(r chi.Router) {
		r.Post("/register/begin", h.handleBeginRegistration)
		r.Post("/register/complete", h.handleCompleteRegistration)
		r.Post("/authenticate/begin", h.handleBeginAuthentication)
		r.Post("/authenticate/complete", h.handleCompleteAuthentication)
	})
}

type beginRegistrationRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type completeRequest struct {
	ChallengeKey string                      `json:"challenge_key"`
	Credential   ceremony.CredentialResponse `json:"credential"`
}

type beginAuthenticationRequest struct {
	Email string `json:"email"`
}

func (h *CeremonyHandler) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	var req beginRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	opts, err := h.ceremonies.BeginRegistration(r.Context(), req.Email, req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, opts)
}

func (h *CeremonyHandler) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.ceremonies.CompleteRegistration(r.Context(), req.ChallengeKey, req.Credential); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (h *CeremonyHandler) handleBeginAuthentication(w http.ResponseWriter, r *http.Request) {
	var req beginAuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	opts, err := h.ceremonies.BeginAuthentication(r.Context(), req.Email)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, opts)
}

func (h *CeremonyHandler) handleCompleteAuthentication(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := h.ceremonies.CompleteAuthentication(r.Context(), req.ChallengeKey, req.Credential)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
