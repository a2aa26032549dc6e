package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terrapulse/impact-service/app/shared/observability"
)

// ServiceName identifies the process in logs and traces.
const ServiceName = "terrapulse-impact"

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Impact        ImpactConfig        `yaml:"impact"`
}

// PostgresConfig holds Postgres configuration. An empty DSN runs the service
// on the in-memory store without background jobs.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig holds the HTTP listener configuration.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	SecureCookies  bool     `yaml:"secure_cookies"`
}

// AuthConfig holds JWT configuration. An empty secret means guest-only mode.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string  `yaml:"metrics_address"`
	LogLevel       string  `yaml:"log_level"`
	Environment    string  `yaml:"environment"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	SampleRate     float64 `yaml:"sample_rate"`
}

// ImpactConfig holds the scoring engine settings.
type ImpactConfig struct {
	Timezone           string        `yaml:"timezone"`
	PersistenceTimeout time.Duration `yaml:"persistence_timeout"`
	ActivityPageSize   int           `yaml:"activity_page_size"`
	GuestTTL           time.Duration `yaml:"guest_ttl"`
	Roster             []RosterEntry `yaml:"roster"`
}

// RosterEntry is one fixed leaderboard participant.
type RosterEntry struct {
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
}

// Location resolves the configured day-boundary zone.
func (c ImpactConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid impact timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultRoster mirrors the participants shown before any user signs up.
func DefaultRoster() []RosterEntry {
	return []RosterEntry{
		{Name: "Sarah Green", Points: 5240},
		{Name: "Michael Forest", Points: 4890},
		{Name: "Emma Earth", Points: 3670},
		{Name: "David Plant", Points: 2110},
	}
}

// LoadConfig loads the configuration from a YAML file. A missing file falls
// back to environment variables and defaults.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if _, err := cfg.Impact.Location(); err != nil {
		return nil, err
	}
	if cfg.Impact.PersistenceTimeout < 0 {
		return nil, fmt.Errorf("impact persistence_timeout must be positive, got %s", cfg.Impact.PersistenceTimeout)
	}

	return &cfg, nil
}

// --- OVERRIDE WITH ENV VARS IF PRESENT ---
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TRACE_SAMPLE_RATE value: %w", err)
		}
		cfg.Observability.SampleRate = f
	}
	if v := os.Getenv("IMPACT_TIMEZONE"); v != "" {
		cfg.Impact.Timezone = v
	}
	if v := os.Getenv("IMPACT_PERSISTENCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IMPACT_PERSISTENCE_TIMEOUT value: %w", err)
		}
		cfg.Impact.PersistenceTimeout = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.HTTP.RateLimitRPS <= 0 {
		cfg.HTTP.RateLimitRPS = 5
	}
	if cfg.HTTP.RateLimitBurst <= 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Observability.MetricsAddress == "" {
		cfg.Observability.MetricsAddress = ":9090"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "development"
	}
	if cfg.Observability.SampleRate <= 0 {
		cfg.Observability.SampleRate = 0.1
	}
	if cfg.Impact.Timezone == "" {
		cfg.Impact.Timezone = "UTC"
	}
	if cfg.Impact.PersistenceTimeout == 0 {
		cfg.Impact.PersistenceTimeout = 5 * time.Second
	}
	if cfg.Impact.ActivityPageSize <= 0 {
		cfg.Impact.ActivityPageSize = 20
	}
	if cfg.Impact.GuestTTL <= 0 {
		cfg.Impact.GuestTTL = 24 * time.Hour
	}
	if len(cfg.Impact.Roster) == 0 {
		cfg.Impact.Roster = DefaultRoster()
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToObsConfig maps the observability section onto the shared stack.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:  ServiceName,
		Environment:  appCfg.Observability.Environment,
		LogLevel:     appCfg.Observability.LogLevel,
		OTLPEndpoint: appCfg.Observability.OTLPEndpoint,
		OTLPInsecure: appCfg.Observability.OTLPInsecure,
		SampleRate:   appCfg.Observability.SampleRate,
	}
}
