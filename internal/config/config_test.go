package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna-game/mna-indexer/internal/domain"
)

const testContracts = `
game:
  contracts:
    - address: "0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0"
      kind: game
      name: "MnA"
    - address: "0x5846cEE85A737Ea26b49D935754D49EdE9b4a4F9"
      kind: staking_pool
      name: "Mine"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadEmitterConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *EmitterConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  max_reconnects: 5
  reconnect_wait: "5s"
ethereum:
  websocket_url: "ws://localhost:8545"
  rpc_url: "http://localhost:8545"
  start_block: 1000
` + testContracts,
			expectError: false,
			validate: func(t *testing.T, cfg *EmitterConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "ws://localhost:8545", cfg.Ethereum.WebSocketURL)
				assert.Equal(t, uint64(1000), cfg.Ethereum.StartBlock)
				assert.Len(t, cfg.Game.Contracts, 2)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
ethereum:
  websocket_url: "ws://localhost:8545"
  rpc_url: "http://localhost:8545"
` + testContracts,
			expectError: false,
			validate: func(t *testing.T, cfg *EmitterConfig) {
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, "2s", cfg.NATS.ReconnectWait.String())
				assert.Equal(t, "GAME_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, domain.DefaultMarineSupply, cfg.Game.MarineSupply)
				assert.Equal(t, domain.DefaultAlienSupply, cfg.Game.AlienSupply)
			},
		},
		{
			name: "missing websocket url",
			configFile: `
database:
  host: localhost
` + testContracts,
			expectError: true,
		},
		{
			name: "missing contracts",
			configFile: `
ethereum:
  websocket_url: "ws://localhost:8545"
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadEmitterConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadProcessorConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *ProcessorConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: false
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
  consumer_name: "custom-consumer"
  ack_wait: "60s"
  max_deliver: 5
ethereum:
  rpc_url: "http://localhost:8545"
metadata:
  http_timeout: "15s"
` + testContracts,
			expectError: false,
			validate: func(t *testing.T, cfg *ProcessorConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "custom-consumer", cfg.NATS.ConsumerName)
				assert.Equal(t, 60*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 5, cfg.NATS.MaxDeliver)
				assert.Equal(t, 15*time.Second, cfg.Metadata.HTTPTimeout)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
nats:
  url: "nats://localhost:4222"
` + testContracts,
			expectError: false,
			validate: func(t *testing.T, cfg *ProcessorConfig) {
				assert.Equal(t, "GAME_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "game-processor", cfg.NATS.ConsumerName)
				assert.Equal(t, 30*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 3, cfg.NATS.MaxDeliver)
				assert.Equal(t, 30*time.Second, cfg.Metadata.HTTPTimeout)
			},
		},
		{
			name:        "missing contracts",
			configFile:  `debug: true`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadProcessorConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name       string
		configFile string
		validate   func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 20
  idle_timeout: 180
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
auth:
  jwt_public_key: "test-public-key"
  api_keys:
    - "key1"
    - "key2"
` + testContracts,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 20, cfg.Server.ReadTimeout)
				assert.Equal(t, 180, cfg.Server.IdleTimeout)
				assert.Equal(t, "test-public-key", cfg.Auth.JWTPublicKey)
				assert.Len(t, cfg.Auth.APIKeys, 2)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Server.ReadTimeout)
				assert.Equal(t, 10, cfg.Server.WriteTimeout)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadAPIConfig(configFile, "")
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestGameConfigRegistry(t *testing.T) {
	cfg := GameConfig{
		Contracts: []ContractConfig{
			{Address: "0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0", Kind: "game", Name: "MnA"},
			{Address: "0x5846cEE85A737Ea26b49D935754D49EdE9b4a4F9", Kind: "staking_pool", Name: "Mine"},
		},
	}

	registry := cfg.Registry()
	assert.True(t, registry.IsStakingPool("0x5846cee85a737ea26b49d935754d49ede9b4a4f9"))

	c, ok := registry.Lookup("0xf0245f6251bef9447a08766b9da2b07b28ad80b0")
	require.True(t, ok)
	assert.Equal(t, domain.ContractKindGame, c.Kind)
	assert.Equal(t, "MnA", c.Name)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		cfg.DSN())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	require.NoError(t, os.MkdirAll(envDir, 0750))

	envFile := filepath.Join(envDir, ".env")
	envContent := `MNA_INDEXER_DEBUG=true
MNA_INDEXER_DATABASE_HOST=env-host
MNA_INDEXER_DATABASE_PORT=3306
MNA_INDEXER_DATABASE_USER=env-user
MNA_INDEXER_DATABASE_PASSWORD=env-pass
MNA_INDEXER_DATABASE_DBNAME=env-db
MNA_INDEXER_DATABASE_SSLMODE=require
`
	require.NoError(t, os.WriteFile(envFile, []byte(envContent), 0600))

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
  user: file-user
  password: file-pass
  dbname: file-db
  sslmode: disable
`
	require.NoError(t, os.WriteFile(configPath, []byte(configFile), 0600))

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Env vars loaded via godotenv override config file values
	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, "env-pass", cfg.Database.Password)
	assert.Equal(t, "env-db", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
}
