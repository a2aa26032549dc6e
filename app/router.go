package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

// Router builds the public HTTP handler for every module.
func (app *App) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", app.handleHealth)

	app.AuthModule.RegisterRoutes(mux)
	app.ImpactModule.RegisterRoutes(mux)
	return mux
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := app.HealthCheck(ctx); err != nil {
		app.logger.WarnContext(ctx, "Health check failed", attr.Error(err))
		status, code = err.Error(), http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
