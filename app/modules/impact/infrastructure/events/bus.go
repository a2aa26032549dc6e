package impactevents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

// Bus publishes impact events and lets in-process consumers subscribe. It is
// backed by NATS JetStream or, without a NATS URL, by an in-memory channel.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	logger     *slog.Logger
}

var (
	_ message.Publisher  = (*Bus)(nil)
	_ message.Subscriber = (*Bus)(nil)
)

// New picks the JetStream bus when natsURL is set and the in-process bus
// otherwise.
func New(ctx context.Context, natsURL string, logger *slog.Logger) (*Bus, error) {
	if natsURL == "" {
		logger.InfoContext(ctx, "No NATS URL configured, using in-process event bus")
		return NewInProcess(logger), nil
	}
	return NewJetStream(ctx, natsURL, logger)
}

// NewInProcess creates a bus on a Watermill Go channel.
func NewInProcess(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return &Bus{publisher: pubSub, subscriber: pubSub, logger: logger}
}

// NewJetStream connects to NATS, makes sure the impact stream exists and
// creates Watermill publisher and subscriber on top of it.
func NewJetStream(ctx context.Context, natsURL string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	natsConn, err := nc.Connect(natsURL, nc.Timeout(10*time.Second))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	if err := EnsureStream(ctx, js, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(time.Second),
	}
	// The stream is provisioned above; topic names contain dots and cannot
	// double as stream names.
	jsConfig := nats.JetStreamConfig{
		AutoProvision: false,
		SubscribeOptions: []nc.SubOpt{
			nc.DeliverNew(),
			nc.AckExplicit(),
		},
	}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:               natsURL,
		NatsOptions:       natsOptions,
		Marshaler:         marshaler,
		JetStream:         jsConfig,
		SubjectCalculator: nats.DefaultSubjectCalculator,
	}, watermillLogger)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:               natsURL,
		NatsOptions:       natsOptions,
		Unmarshaler:       marshaler,
		JetStream:         jsConfig,
		SubjectCalculator: nats.DefaultSubjectCalculator,
		AckWaitTimeout:    30 * time.Second,
		CloseTimeout:      10 * time.Second,
	}, watermillLogger)
	if err != nil {
		publisher.Close()
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.InfoContext(ctx, "Connected JetStream event bus", attr.String("url", natsURL))
	return &Bus{
		publisher:  publisher,
		subscriber: subscriber,
		natsConn:   natsConn,
		logger:     logger,
	}, nil
}

// Publish implements message.Publisher.
func (b *Bus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := b.publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	b.logger.Debug("Published event", attr.String("topic", topic), attr.Int("count", len(messages)))
	return nil
}

// Subscribe implements message.Subscriber.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return messages, nil
}

// Close closes all NATS and Watermill resources.
func (b *Bus) Close() error {
	var firstErr error
	if err := b.publisher.Close(); err != nil {
		b.logger.Error("Error closing publisher", attr.Error(err))
		firstErr = err
	}
	// The in-process bus uses one object for both sides.
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			b.logger.Error("Error closing subscriber", attr.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if b.natsConn != nil {
		b.natsConn.Close()
	}
	return firstErr
}
