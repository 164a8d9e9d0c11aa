package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store"
)

// applyBurn tombstones a destroyed token. Burns can reference tokens the
// indexer never saw when it started mid-chain, so misses are warned and
// skipped rather than treated as fatal.
func (e *Engine) applyBurn(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	key := ev.TokenKey().String()

	token, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		logger.WarnCtx(ctx, "burn for unknown token", zap.String("token", key))
		return nil
	}
	if token.Burned {
		return nil
	}

	player, err := s.GetPlayer(ctx, token.OwnerAddress)
	if err != nil {
		return err
	}
	if player == nil {
		logger.WarnCtx(ctx, "burn for token with unknown owner",
			zap.String("token", key),
			zap.String("owner", token.OwnerAddress))
		return nil
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	decrementOwned(ctx, player, token.Species)
	if token.IsStaked {
		token.IsStaked = false
		token.StakedAt = nil
		removeStaked(ctx, game, player, token.Species)
	}
	token.OwnerAddress = domain.ZeroAddress
	token.Burned = true

	switch token.Species {
	case domain.SpeciesMarine:
		game.MarinesBurned++
	case domain.SpeciesAlien:
		game.AliensBurned++
	}

	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}
