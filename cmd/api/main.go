package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/api/middleware"
	"github.com/mna-game/mna-indexer/internal/api/server"
	"github.com/mna-game/mna-indexer/internal/config"
	"github.com/mna-game/mna-indexer/internal/engine"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/metadata"
	"github.com/mna-game/mna-indexer/internal/providers/ethereum"
	"github.com/mna-game/mna-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting API server")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store and engine
	dataStore := store.NewPGStore(db)
	registry := cfg.Game.Registry()
	eng := engine.New(dataStore, registry)

	// Initialize the metadata resolver backing the refresh endpoint
	var resolver metadata.Resolver
	if cfg.Ethereum.RPCURL != "" {
		ethDialer := adapter.NewEthClientDialer()
		adapterEthClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
		if err != nil {
			logger.Fatal("Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
		}
		defer adapterEthClient.Close()

		gameClient := ethereum.NewClient(adapterEthClient, registry, adapter.NewClock())
		httpClient := adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout)
		resolver = metadata.NewResolver(gameClient, httpClient, adapter.NewJSON())
	} else {
		logger.Warn("No Ethereum RPC endpoint configured, metadata refresh is disabled")
	}

	// Create server
	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, dataStore, eng, resolver)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for server errors
	errCh := make(chan error, 1)

	// Start the server
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("message", "Failed to shutdown server gracefully"))
	}

	logger.Info("API server stopped")
}
