package authhandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	authservice "github.com/terrapulse/impact-service/app/modules/auth/application"
	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"go.opentelemetry.io/otel/trace"
)

// Handlers serves the auth HTTP endpoints.
type Handlers interface {
	HandleSession(w http.ResponseWriter, r *http.Request)
}

// AuthHandlers implements the Handlers interface.
type AuthHandlers struct {
	service authservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(
	service authservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &AuthHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// SessionResponse is the body of GET /api/auth/session.
type SessionResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Guest       bool   `json:"guest"`
}

// HandleSession reports who the caller is. It runs behind SessionMiddleware.
func (h *AuthHandlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleSession")
	defer span.End()

	session, ok := authdomain.FromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SessionResponse{
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Guest:       session.Guest,
	}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode session response", attr.Error(err))
	}
}
