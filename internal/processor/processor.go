package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/engine"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/metadata"
	natsjs "github.com/mna-game/mna-indexer/internal/providers/jetstream"
)

// Config holds the configuration for the game event processor
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Processor defines the interface for the game event processor
type Processor interface {
	// Run starts consuming and applying game events
	Run(ctx context.Context) error
	// Close closes the processor and cleans up resources
	Close()
}

// processor consumes ordered game events from JetStream and applies them
// through the engine. Events are processed one at a time; the aggregates
// depend on strict ordering.
type processor struct {
	nc       adapter.NatsConn
	js       adapter.JetStream
	engine   *engine.Engine
	resolver metadata.Resolver
	json     adapter.JSON
	config   Config
}

// NewProcessor creates a new game event processor. The resolver is
// optional; without it mints are not annotated with metadata.
func NewProcessor(
	cfg Config,
	natsJetStream adapter.NatsJetStream,
	eng *engine.Engine,
	resolver metadata.Resolver,
	jsonAdapter adapter.JSON,
) (Processor, error) {
	nc, js, err := natsJetStream.Connect(cfg.URL, natsjs.ConnectOptions(natsjs.Config{
		URL:            cfg.URL,
		StreamName:     cfg.StreamName,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		ConnectionName: cfg.ConnectionName,
	})...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &processor{
		nc:       nc,
		js:       js,
		engine:   eng,
		resolver: resolver,
		json:     jsonAdapter,
		config:   cfg,
	}, nil
}

// Run starts consuming game events
func (p *processor) Run(ctx context.Context) error {
	logger.Info("Starting game event processor",
		zap.String("stream", p.config.StreamName),
		zap.String("consumer", p.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       p.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       p.config.AckWaitTimeout,
		MaxDeliver:    p.config.MaxDeliver,
		FilterSubject: "game.events.>",
		// one in-flight message at a time keeps chain order intact
		MaxAckPending: 1,
	}

	consumer, err := p.js.CreateOrUpdateConsumer(ctx, p.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	// messages are handled inline, not in goroutines: the next event must
	// not be applied before the current one finishes
	sub, err := consumer.Consume(func(msg adapter.Message) {
		p.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	<-ctx.Done()
	logger.Info("Shutting down game event processor")
	return ctx.Err()
}

// handleMessage applies a single game event
func (p *processor) handleMessage(ctx context.Context, msg adapter.Message) {
	meta, _ := msg.Metadata()

	var event domain.GameEvent
	if err := p.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal event"))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	fields := []zap.Field{
		zap.String("eventType", string(event.EventType)),
		zap.String("token", event.TokenKey().String()),
		zap.String("txHash", event.TxHash),
	}
	if meta != nil {
		fields = append(fields, zap.Uint64("deliveryCount", meta.NumDelivered))
	}
	logger.Debug("Received event", fields...)

	if err := p.engine.Apply(ctx, &event); err != nil {
		if domain.IsFatal(err) {
			// the event can never apply; redelivering it would only stall
			// the ordered stream behind a poison message
			logger.Error(err, append(fields, zap.String("message", "Fatal event, terminating"))...)
			if err := msg.Term(); err != nil {
				logger.Error(err, zap.String("message", "Failed to terminate message"))
			}
			return
		}

		logger.Error(err, append(fields, zap.String("message", "Failed to apply event, will retry"))...)
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if event.EventType == domain.EventTypeMint {
		p.annotateMetadata(ctx, &event)
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// annotateMetadata resolves and stores token metadata after a mint. Best
// effort: a failure is logged and never blocks the event stream.
func (p *processor) annotateMetadata(ctx context.Context, event *domain.GameEvent) {
	if p.resolver == nil {
		return
	}

	resolved, err := p.resolver.Resolve(ctx, event.ContractAddress, event.TokenNumber)
	if err != nil {
		logger.Warn("Failed to resolve token metadata",
			zap.String("token", event.TokenKey().String()),
			zap.Error(err))
		return
	}

	if err := p.engine.ApplyMetadata(ctx, event.TokenKey().String(), resolved.Attributes, resolved.Raw); err != nil {
		logger.Warn("Failed to store token metadata",
			zap.String("token", event.TokenKey().String()),
			zap.Error(err))
	}
}

// Close closes the processor and cleans up resources
func (p *processor) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
