package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chainpass/internal/platform/middleware"
	"chainpass/internal/registry"
	"chainpass/internal/transport/http/shared"
	dErrors "chainpass/pkg/domain-errors"
)

// RegistryService is what the registry handler needs from the domain layer.
type RegistryService interface {
	Register(ctx context.Context, input registry.RegisterInput) (registry.Record, error)
	Get(ctx context.Context, ownerAddress string) (registry.Record, error)
	Exists(ctx context.Context, ownerAddress string) bool
	ListActive(ctx context.Context) ([]registry.Record, error)
	CountActive(ctx context.Context) (int, error)
	Deactivate(ctx context.Context, ownerAddress string) error
}

type RegistryHandler struct {
	registry RegistryService
	sessions middleware.SessionVerifier
	logger   *slog.Logger
}

func NewRegistryHandler(service RegistryService, sessions middleware.SessionVerifier, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{registry: service, sessions: sessions, logger: logger}
}

// Register wires the registry routes. Enumeration, stats, and deactivation
// are administrative and sit behind session auth; lookups and registration
// are public.
func (h *RegistryHandler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Post("/identities", h.handleRegister)
		r.Get("/identities/{address}", h.handleGet)
		r.Get("/identities/{address}/registered", h.handleExists)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.sessions, h.logger))
			r.Get("/identities", h.handleList)
			r.Get("/stats", h.handleCount)
			r.Delete("/identities/{address}", h.handleDeactivate)
		})
	})
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	IDHash       string `json:"id_hash"`
	NationalID   string `json:"national_id"`
	OwnerAddress string `json:"owner_address"`
}

type identityResponse struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IDHash       string    `json:"id_hash"`
	OwnerAddress string    `json:"owner_address"`
	RegisteredAt time.Time `json:"registered_at"`
	Active       bool      `json:"active"`
}

func toIdentityResponse(record registry.Record) identityResponse {
	return identityResponse{
		Name:         record.Name,
		Email:        record.Email.String(),
		IDHash:       record.IDHash.String(),
		OwnerAddress: record.OwnerAddress.String(),
		RegisteredAt: record.RegisteredAt,
		Active:       record.Active,
	}
}

func (h *RegistryHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.registry.Register(r.Context(), registry.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		IDHash:       req.IDHash,
		NationalID:   req.NationalID,
		OwnerAddress: req.OwnerAddress,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toIdentityResponse(record))
}

func (h *RegistryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.registry.Get(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toIdentityResponse(record))
}

func (h *RegistryHandler) handleExists(w http.ResponseWriter, r *http.Request) {
	exists := h.registry.Exists(r.Context(), chi.URLParam(r, "address"))
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"registered": exists})
}

func (h *RegistryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.ListActive(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	identities := make([]identityResponse, 0, len(records))
	for _, record := range records {
		identities = append(identities, toIdentityResponse(record))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"identities": identities})
}

func (h *RegistryHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.CountActive(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"active": count})
}

func (h *RegistryHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Deactivate(r.Context(), chi.URLParam(r, "address")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
