package store

import (
	"context"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// Store defines the interface for database operations.
// Get methods return (nil, nil) when the record does not exist.
type Store interface {
	// GetGame retrieves the singleton game aggregate
	GetGame(ctx context.Context, id string) (*schema.Game, error)
	// GetOrCreateGame retrieves the game aggregate, creating a zeroed one if missing
	GetOrCreateGame(ctx context.Context, id string) (*schema.Game, error)
	// SaveGame persists the game aggregate
	SaveGame(ctx context.Context, game *schema.Game) error

	// GetPlayer retrieves a player by lowercase address
	GetPlayer(ctx context.Context, address string) (*schema.Player, error)
	// GetOrCreatePlayer retrieves a player, creating a zeroed one if missing.
	// The second return reports whether the player was created.
	GetOrCreatePlayer(ctx context.Context, address string) (*schema.Player, bool, error)
	// SavePlayer persists a player
	SavePlayer(ctx context.Context, player *schema.Player) error
	// CountPlayers returns the number of player rows
	CountPlayers(ctx context.Context) (int64, error)

	// GetToken retrieves a token by its composite key
	GetToken(ctx context.Context, id string) (*schema.Token, error)
	// SaveToken persists a token
	SaveToken(ctx context.Context, token *schema.Token) error
	// ListTokensByOwner retrieves tokens currently owned by an address
	ListTokensByOwner(ctx context.Context, owner string, limit, offset int) ([]*schema.Token, error)

	// GetStolenToken retrieves a theft record by the composite token key
	GetStolenToken(ctx context.Context, id string) (*schema.StolenToken, error)
	// SaveStolenToken persists a theft record
	SaveStolenToken(ctx context.Context, stolen *schema.StolenToken) error
	// ListStolenTokens retrieves theft records, newest first. A non-nil
	// resolved filters on whether the thief is known.
	ListStolenTokens(ctx context.Context, resolved *bool, limit, offset int) ([]*schema.StolenToken, error)

	// GetOrCreateContract retrieves a contract row, creating it if missing
	GetOrCreateContract(ctx context.Context, address string, kind domain.ContractKind, name string) (*schema.Contract, error)

	// GetTrait retrieves a trait by its composite key
	GetTrait(ctx context.Context, id string) (*schema.Trait, error)
	// SaveTrait persists a trait
	SaveTrait(ctx context.Context, trait *schema.Trait) error
	// ListTraits retrieves traits, optionally filtered by species
	ListTraits(ctx context.Context, species domain.Species) ([]*schema.Trait, error)

	// GetBlockCursor retrieves the last processed block number for a stream
	GetBlockCursor(ctx context.Context, stream string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a stream
	SetBlockCursor(ctx context.Context, stream string, blockNumber uint64) error

	// Atomically runs fn against a transactional view of the store. All
	// writes are committed together or not at all.
	Atomically(ctx context.Context, fn func(Store) error) error
}
