package impacthandlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	"github.com/terrapulse/impact-service/app/shared/attr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 16 << 10

// ImpactHandlers implements the Handlers interface.
type ImpactHandlers struct {
	service impactservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewImpactHandlers creates a new ImpactHandlers instance.
func NewImpactHandlers(
	service impactservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ImpactHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *ImpactHandlers) session(w http.ResponseWriter, r *http.Request) (authdomain.Session, bool) {
	session, ok := authdomain.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "no session"})
	}
	return session, ok
}

func (h *ImpactHandlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", attr.Error(err))
	}
}

// writeError maps service errors onto HTTP statuses.
func (h *ImpactHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *impactdomain.ValidationError
	var persistenceErr *impactservice.PersistenceError
	switch {
	case errors.As(err, &validationErr):
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Field: validationErr.Field})
	case errors.Is(err, impactservice.ErrUnsupportedFormat):
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "format"})
	case errors.As(err, &persistenceErr):
		h.logger.WarnContext(ctx, "Storage unavailable", attr.String("operation", persistenceErr.Op), attr.Error(err))
		h.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "storage temporarily unavailable", Retryable: true})
	default:
		h.logger.ErrorContext(ctx, "Unhandled impact error", attr.Error(err))
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}
