package impactevents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

const (
	// StreamName is the JetStream stream holding every impact event.
	StreamName = "IMPACT"
	// StreamSubjects captures all impact topics.
	StreamSubjects = "impact.>"
)

// EnsureStream creates the impact stream if it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to check stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{StreamSubjects},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    0,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		logger.ErrorContext(ctx, "Failed to create JetStream stream", attr.String("stream", StreamName), attr.Error(err))
		return fmt.Errorf("failed to create stream: %w", err)
	}
	logger.InfoContext(ctx, "Created JetStream stream", attr.String("stream", StreamName))
	return nil
}
