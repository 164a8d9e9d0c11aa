package engine

import (
	"context"
	"fmt"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// Engine applies decoded game events to the aggregate store. Events must
// arrive in chain order; each event's mutation set is applied inside a
// single store transaction, so no partially-applied event is ever visible.
type Engine struct {
	store    store.Store
	registry *domain.ContractRegistry
}

// New creates an engine bound to a store and a contract registry
func New(s store.Store, registry *domain.ContractRegistry) *Engine {
	return &Engine{store: s, registry: registry}
}

// Apply validates one event and dispatches it to its handler. Fatal errors
// (see domain.IsFatal) mean the stream is inconsistent and the caller must
// not continue past the offending event.
func (e *Engine) Apply(ctx context.Context, ev *domain.GameEvent) error {
	if !ev.Valid() {
		return fmt.Errorf("%w: %s event for contract %s", domain.ErrInvalidEvent, ev.EventType, ev.ContractAddress)
	}

	return e.store.Atomically(ctx, func(s store.Store) error {
		if err := e.trackContract(ctx, s, ev.ContractAddress); err != nil {
			return err
		}

		switch ev.EventType {
		case domain.EventTypeTransfer:
			return e.applyTransfer(ctx, s, ev)
		case domain.EventTypeMint:
			return e.applyMint(ctx, s, ev)
		case domain.EventTypeTheft:
			return e.applyTheftAnnounced(ctx, s, ev)
		case domain.EventTypeStake:
			return e.applyStake(ctx, s, ev)
		case domain.EventTypeClaim:
			return e.applyClaim(ctx, s, ev)
		case domain.EventTypeBurn:
			return e.applyBurn(ctx, s, ev)
		case domain.EventTypeMintCommitted, domain.EventTypeMintRevealed:
			return e.applyMintProgress(ctx, s, ev)
		case domain.EventTypePassTransfer:
			return e.applyPassTransfer(ctx, s, ev)
		default:
			return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidEvent, ev.EventType)
		}
	})
}

// loadPlayer fetches or lazily creates a player, bumping the game's player
// count when a new row appears. The caller is responsible for saving both.
func (e *Engine) loadPlayer(ctx context.Context, s store.Store, game *schema.Game, address string) (*schema.Player, error) {
	player, created, err := s.GetOrCreatePlayer(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return nil, err
	}
	if created {
		game.NumPlayers++
	}
	return player, nil
}

// trackContract lazily records a contract row for watched addresses
func (e *Engine) trackContract(ctx context.Context, s store.Store, address string) error {
	c, ok := e.registry.Lookup(address)
	if !ok {
		return nil
	}
	_, err := s.GetOrCreateContract(ctx, c.Address, c.Kind, c.Name)
	return err
}
