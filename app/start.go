package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

const shutdownTimeout = 10 * time.Second

// Start serves the API and metrics until ctx is cancelled, then shuts every
// component down.
func (app *App) Start(ctx context.Context) error {
	app.wg.Add(1)
	go app.ImpactModule.Run(ctx, &app.wg)

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsSrv *http.Server
	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Observability.MetricsHandler())
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			app.logger.Info("Metrics server listening", attr.String("addr", addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.Error("Metrics server failed", attr.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("HTTP server listening", attr.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutting down application")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := app.Close(shutdownCtx); err != nil {
		app.logger.Error("Error during shutdown", attr.Error(err))
	}

	app.logger.Info("Application shut down gracefully")
	return runErr
}
