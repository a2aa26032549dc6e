package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/terrapulse/impact-service/app/shared/observability/metrics/impactmetrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds the knobs the observability stack needs.
type Config struct {
	ServiceName  string
	Environment  string
	LogLevel     string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRate   float64
}

// Observability bundles the logger, tracer and metrics shared by every module.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  impactmetrics.ImpactMetrics

	shutdown func(context.Context) error
}

// Init builds a JSON slog logger, a prometheus registry with runtime collectors
// and, when an OTLP endpoint is configured, a batching trace exporter.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	return initWithWriter(ctx, cfg, os.Stdout)
}

func initWithWriter(ctx context.Context, cfg Config, w io.Writer) (*Observability, error) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := &Observability{
		Logger:   logger,
		Registry: registry,
		Metrics:  impactmetrics.NewPrometheus(registry),
		shutdown: func(context.Context) error { return nil },
	}

	if cfg.OTLPEndpoint == "" {
		obs.Tracer = otel.Tracer(cfg.ServiceName)
		return obs, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 0.1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(tp)

	obs.Tracer = tp.Tracer(cfg.ServiceName)
	obs.shutdown = tp.Shutdown
	return obs, nil
}

// NewNoop returns an Observability that discards logs, spans and metrics.
func NewNoop() *Observability {
	return &Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Registry: prometheus.NewRegistry(),
		Metrics:  impactmetrics.NewNoop(),
		shutdown: func(context.Context) error { return nil },
	}
}

// MetricsHandler serves the registry in the prometheus exposition format.
func (o *Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry})
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	return o.shutdown(ctx)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
