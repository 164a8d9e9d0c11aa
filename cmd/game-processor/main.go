package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/config"
	"github.com/mna-game/mna-indexer/internal/engine"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/metadata"
	"github.com/mna-game/mna-indexer/internal/processor"
	"github.com/mna-game/mna-indexer/internal/providers/ethereum"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadProcessorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "game-processor",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Game Processor")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// The processor owns the schema, other services only read it
	if err := db.AutoMigrate(schema.Models()...); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Initialize store and engine
	dataStore := store.NewPGStore(db)
	registry := cfg.Game.Registry()
	eng := engine.New(dataStore, registry)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Initialize the metadata resolver when an RPC endpoint is configured,
	// mints are annotated best effort
	var resolver metadata.Resolver
	if cfg.Ethereum.RPCURL != "" {
		ethDialer := adapter.NewEthClientDialer()
		adapterEthClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
		if err != nil {
			logger.Fatal("Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
		}
		defer adapterEthClient.Close()

		gameClient := ethereum.NewClient(adapterEthClient, registry, clockAdapter)
		httpClient := adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout)
		resolver = metadata.NewResolver(gameClient, httpClient, jsonAdapter)
	} else {
		logger.Warn("No Ethereum RPC endpoint configured, token metadata will not be resolved")
	}

	// Create processor
	gameProcessor, err := processor.NewProcessor(
		processor.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		},
		natsJS,
		eng,
		resolver,
		jsonAdapter,
	)
	if err != nil {
		logger.Fatal("Failed to create game processor", zap.Error(err))
	}
	defer gameProcessor.Close()
	logger.InfoCtx(ctx, "Game processor created",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName))

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for processor errors
	errCh := make(chan error, 1)

	// Start the processor
	go func() {
		if err := gameProcessor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "processor"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Game Processor stopped")
}
