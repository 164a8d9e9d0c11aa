package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// EthereumConfig holds Ethereum node configuration
type EthereumConfig struct {
	WebSocketURL string `mapstructure:"websocket_url"`
	RPCURL       string `mapstructure:"rpc_url"`
	StartBlock   uint64 `mapstructure:"start_block"`
}

// ContractConfig describes one watched game contract
type ContractConfig struct {
	Address string `mapstructure:"address"`
	Kind    string `mapstructure:"kind"`
	Name    string `mapstructure:"name"`
}

// GameConfig holds game-level constants
type GameConfig struct {
	MarineSupply int64            `mapstructure:"marine_supply"`
	AlienSupply  int64            `mapstructure:"alien_supply"`
	Contracts    []ContractConfig `mapstructure:"contracts"`
}

// Registry builds the contract registry from the configured contract list
func (c *GameConfig) Registry() *domain.ContractRegistry {
	contracts := make([]domain.WatchedContract, 0, len(c.Contracts))
	for _, cc := range c.Contracts {
		contracts = append(contracts, domain.WatchedContract{
			Address: cc.Address,
			Kind:    domain.ContractKind(cc.Kind),
			Name:    cc.Name,
		})
	}
	return domain.NewContractRegistry(contracts)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// MetadataConfig holds token metadata resolution configuration
type MetadataConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// EmitterConfig holds configuration for ethereum-event-emitter
type EmitterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Game       GameConfig     `mapstructure:"game"`
}

// ProcessorConfig holds configuration for game-processor
type ProcessorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Game       GameConfig     `mapstructure:"game"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Game       GameConfig     `mapstructure:"game"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
}

// LoadEmitterConfig loads configuration for ethereum-event-emitter
func LoadEmitterConfig(configFile string, envPath string) (*EmitterConfig, error) {
	v := configureViper("ethereum-event-emitter", configFile, envPath)

	setStreamDefaults(v)
	v.SetDefault("game.marine_supply", domain.DefaultMarineSupply)
	v.SetDefault("game.alien_supply", domain.DefaultAlienSupply)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config EmitterConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Ethereum.WebSocketURL == "" {
		return nil, errors.New("ethereum.websocket_url is required")
	}
	if len(config.Game.Contracts) == 0 {
		return nil, errors.New("game.contracts is required")
	}

	return &config, nil
}

// LoadProcessorConfig loads configuration for game-processor
func LoadProcessorConfig(configFile string, envPath string) (*ProcessorConfig, error) {
	v := configureViper("game-processor", configFile, envPath)

	setStreamDefaults(v)
	v.SetDefault("nats.consumer_name", "game-processor")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)
	v.SetDefault("game.marine_supply", domain.DefaultMarineSupply)
	v.SetDefault("game.alien_supply", domain.DefaultAlienSupply)
	v.SetDefault("metadata.http_timeout", "30s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config ProcessorConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Game.Contracts) == 0 {
		return nil, errors.New("game.contracts is required")
	}

	return &config, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("game.marine_supply", domain.DefaultMarineSupply)
	v.SetDefault("game.alien_supply", domain.DefaultAlienSupply)
	v.SetDefault("metadata.http_timeout", "30s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setStreamDefaults applies the database and NATS defaults shared by the
// stream-facing services
func setStreamDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "GAME_EVENTS")
}

// readConfig reads the config file, tolerating its absence so that
// environment-only deployments work
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("MNA_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// Required for viper to map env vars to config struct fields when no
// config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"environment",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.start_block",
		// Game
		"game.marine_supply",
		"game.alien_supply",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Metadata
		"metadata.http_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
