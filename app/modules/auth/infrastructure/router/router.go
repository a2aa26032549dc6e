package authrouter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authhandlers "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/handlers"
)

// BasePath is the mount point of the auth routes.
const BasePath = "/api/auth"

// Router registers the auth HTTP routes.
type Router struct {
	handlers    authhandlers.Handlers
	middlewares []func(http.Handler) http.Handler
}

// NewRouter creates a new auth router. The middlewares run in order in front
// of every auth route.
func NewRouter(handlers authhandlers.Handlers, middlewares ...func(http.Handler) http.Handler) *Router {
	return &Router{
		handlers:    handlers,
		middlewares: middlewares,
	}
}

// Register mounts the routes on mux.
func (r *Router) Register(mux chi.Router) {
	mux.Route(BasePath, func(cr chi.Router) {
		cr.Use(r.middlewares...)
		cr.Get("/session", r.handlers.HandleSession)
	})
}
