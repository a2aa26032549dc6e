package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "github.com/terrapulse/impact-service/app/modules/auth/application"
	authhandlers "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/jwt"
	authrouter "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/router"
	"github.com/terrapulse/impact-service/app/shared/observability"
	"github.com/terrapulse/impact-service/config"
)

// Module represents the unified auth module.
type Module struct {
	config            *config.Config
	service           authservice.Service
	handlers          authhandlers.Handlers
	sessionMiddleware func(http.Handler) http.Handler
	logger            *slog.Logger
}

// NewModule creates a new auth module. Without a JWT secret every caller is a
// guest.
func NewModule(ctx context.Context, cfg *config.Config, obs *observability.Observability) *Module {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing auth module")

	var jwtProvider authjwt.Provider
	if cfg.Auth.JWTSecret != "" {
		jwtProvider = authjwt.NewProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		logger.WarnContext(ctx, "No JWT secret configured, running guest-only")
	}

	service := authservice.NewService(jwtProvider, logger, tracer)

	return &Module{
		config:            cfg,
		service:           service,
		handlers:          authhandlers.NewAuthHandlers(service, logger, tracer),
		sessionMiddleware: authhandlers.SessionMiddleware(service, logger, cfg.HTTP.SecureCookies),
		logger:            logger,
	}
}

// RegisterRoutes mounts the auth HTTP routes.
func (m *Module) RegisterRoutes(mux chi.Router) {
	authrouter.NewRouter(
		m.handlers,
		authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins),
		m.sessionMiddleware,
	).Register(mux)
}

// SessionMiddleware resolves the caller for other modules' routes.
func (m *Module) SessionMiddleware() func(http.Handler) http.Handler {
	return m.sessionMiddleware
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
