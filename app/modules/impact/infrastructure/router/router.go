package impactrouter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	impacthandlers "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/handlers"
)

// BasePath is the mount point of the impact routes.
const BasePath = "/api/impact"

// Config wires the middleware the impact routes run behind.
type Config struct {
	// CORS runs first on every route, including preflight requests.
	CORS func(http.Handler) http.Handler
	// Session resolves the caller; required.
	Session func(http.Handler) http.Handler
	// WriteLimit rate limits mutating routes.
	WriteLimit func(http.Handler) http.Handler
}

// Router registers the impact HTTP routes.
type Router struct {
	handlers impacthandlers.Handlers
	config   Config
}

// NewRouter creates a new impact router.
func NewRouter(handlers impacthandlers.Handlers, config Config) *Router {
	return &Router{handlers: handlers, config: config}
}

// Register mounts the routes on mux.
func (r *Router) Register(mux chi.Router) {
	mux.Route(BasePath, func(cr chi.Router) {
		if r.config.CORS != nil {
			cr.Use(r.config.CORS)
		}
		cr.Use(r.config.Session)

		cr.Get("/activities", r.handlers.HandleListActivities)
		cr.Get("/activities/export", r.handlers.HandleExportActivities)
		cr.Get("/progress", r.handlers.HandleProgress)
		cr.Get("/badges", r.handlers.HandleBadges)
		cr.Get("/leaderboard", r.handlers.HandleLeaderboard)
		cr.Get("/chart/points.png", r.handlers.HandlePointsChart)

		cr.Group(func(wr chi.Router) {
			if r.config.WriteLimit != nil {
				wr.Use(r.config.WriteLimit)
			}
			wr.Post("/activities", r.handlers.HandleSubmitActivity)
			wr.Put("/profile", r.handlers.HandleUpdateProfile)
		})
	})
}
