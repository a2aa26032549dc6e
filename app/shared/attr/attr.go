// Package attr keeps slog attribute keys uniform across the service.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const correlationIDKey = "correlation_id"

func String(key, value string) slog.Attr                 { return slog.String(key, value) }
func Int(key string, value int) slog.Attr                { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr            { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr              { return slog.Bool(key, value) }
func Time(key string, value time.Time) slog.Attr         { return slog.Time(key, value) }
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }
func Any(key string, value any) slog.Attr                { return slog.Any(key, value) }

// UserID tags a log line with the acting user (or guest session).
func UserID(value string) slog.Attr { return slog.String("user_id", value) }

// Error renders err under the "error" key. A nil error renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ExtractCorrelationID returns the request id chi stored on the context, so
// every log line of one HTTP request (and the jobs it spawns) can be joined.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if ctx == nil {
		return slog.String(correlationIDKey, "")
	}
	return slog.String(correlationIDKey, middleware.GetReqID(ctx))
}
