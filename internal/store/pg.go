package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a
// GORM database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

// GetGame retrieves the singleton game aggregate
func (s *pgStore) GetGame(ctx context.Context, id string) (*schema.Game, error) {
	var game schema.Game
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// GetOrCreateGame retrieves the game aggregate, creating a zeroed one if missing
func (s *pgStore) GetOrCreateGame(ctx context.Context, id string) (*schema.Game, error) {
	game := schema.Game{
		ID:             id,
		MintsCommitted: "0",
		MintsRevealed:  "0",
		OresClaimed:    "0",
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&game).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	// Re-read so an existing row wins over the zeroed template
	var out schema.Game
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &out, nil
}

// SaveGame persists the game aggregate
func (s *pgStore) SaveGame(ctx context.Context, game *schema.Game) error {
	if err := s.db.WithContext(ctx).Save(game).Error; err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// GetPlayer retrieves a player by lowercase address
func (s *pgStore) GetPlayer(ctx context.Context, address string) (*schema.Player, error) {
	var player schema.Player
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

// GetOrCreatePlayer retrieves a player, creating a zeroed one if missing
func (s *pgStore) GetOrCreatePlayer(ctx context.Context, address string) (*schema.Player, bool, error) {
	player := schema.Player{
		Address:     address,
		OresClaimed: "0",
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&player)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create player: %w", res.Error)
	}
	created := res.RowsAffected > 0

	var out schema.Player
	if err := s.db.WithContext(ctx).Where("address = ?", address).First(&out).Error; err != nil {
		return nil, false, fmt.Errorf("failed to get player: %w", err)
	}
	return &out, created, nil
}

// SavePlayer persists a player
func (s *pgStore) SavePlayer(ctx context.Context, player *schema.Player) error {
	if err := s.db.WithContext(ctx).Save(player).Error; err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// CountPlayers returns the number of player rows
func (s *pgStore) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&schema.Player{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

// GetToken retrieves a token by its composite key
func (s *pgStore) GetToken(ctx context.Context, id string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// SaveToken persists a token
func (s *pgStore) SaveToken(ctx context.Context, token *schema.Token) error {
	if err := s.db.WithContext(ctx).Save(token).Error; err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ListTokensByOwner retrieves tokens currently owned by an address
func (s *pgStore) ListTokensByOwner(ctx context.Context, owner string, limit, offset int) ([]*schema.Token, error) {
	var tokens []*schema.Token
	err := s.db.WithContext(ctx).
		Where("owner_address = ? AND NOT burned", owner).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens by owner: %w", err)
	}
	return tokens, nil
}

// GetStolenToken retrieves a theft record by the composite token key
func (s *pgStore) GetStolenToken(ctx context.Context, id string) (*schema.StolenToken, error) {
	var stolen schema.StolenToken
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&stolen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stolen token: %w", err)
	}
	return &stolen, nil
}

// SaveStolenToken persists a theft record
func (s *pgStore) SaveStolenToken(ctx context.Context, stolen *schema.StolenToken) error {
	if err := s.db.WithContext(ctx).Save(stolen).Error; err != nil {
		return fmt.Errorf("failed to save stolen token: %w", err)
	}
	return nil
}

// ListStolenTokens retrieves theft records, newest first
func (s *pgStore) ListStolenTokens(ctx context.Context, resolved *bool, limit, offset int) ([]*schema.StolenToken, error) {
	query := s.db.WithContext(ctx)
	if resolved != nil {
		if *resolved {
			query = query.Where("resolved_at IS NOT NULL")
		} else {
			query = query.Where("resolved_at IS NULL")
		}
	}

	var stolen []*schema.StolenToken
	err := query.
		Order("stolen_at_block DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&stolen).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stolen tokens: %w", err)
	}
	return stolen, nil
}

// GetOrCreateContract retrieves a contract row, creating it if missing
func (s *pgStore) GetOrCreateContract(ctx context.Context, address string, kind domain.ContractKind, name string) (*schema.Contract, error) {
	contract := schema.Contract{
		Address: address,
		Kind:    kind,
		Name:    name,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&contract).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	var out schema.Contract
	if err := s.db.WithContext(ctx).Where("address = ?", address).First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &out, nil
}

// GetTrait retrieves a trait by its composite key
func (s *pgStore) GetTrait(ctx context.Context, id string) (*schema.Trait, error) {
	var trait schema.Trait
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&trait).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trait: %w", err)
	}
	return &trait, nil
}

// SaveTrait persists a trait
func (s *pgStore) SaveTrait(ctx context.Context, trait *schema.Trait) error {
	if err := s.db.WithContext(ctx).Save(trait).Error; err != nil {
		return fmt.Errorf("failed to save trait: %w", err)
	}
	return nil
}

// ListTraits retrieves traits, optionally filtered by species
func (s *pgStore) ListTraits(ctx context.Context, species domain.Species) ([]*schema.Trait, error) {
	query := s.db.WithContext(ctx).Order("id")
	if species != "" {
		query = query.Where("species = ?", species)
	}

	var traits []*schema.Trait
	if err := query.Find(&traits).Error; err != nil {
		return nil, fmt.Errorf("failed to list traits: %w", err)
	}
	return traits, nil
}

// GetBlockCursor retrieves the last processed block number for a stream
func (s *pgStore) GetBlockCursor(ctx context.Context, stream string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", stream)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a stream
func (s *pgStore) SetBlockCursor(ctx context.Context, stream string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", stream),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}

// Atomically runs fn against a transactional view of the store
func (s *pgStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}
