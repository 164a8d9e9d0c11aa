package engine

import (
	"context"
	"fmt"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store"
)

// applyStake handles the pool's authoritative Staked event. The transfer
// leg moved custody to the pool; this re-asserts the logical owner. Both
// the player and the token must already exist, a miss means the stream
// skipped the mint.
func (e *Engine) applyStake(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	key := ev.TokenKey().String()

	token, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: stake for %s", domain.ErrTokenNotFound, key)
	}

	owner := domain.NormalizeAddress(*ev.OwnerAddress)
	player, err := s.GetPlayer(ctx, owner)
	if err != nil {
		return err
	}
	if player == nil {
		return fmt.Errorf("%w: stake for %s by %s", domain.ErrPlayerNotFound, key, owner)
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	token.OwnerAddress = owner
	// the transfer custody leg may have already flipped the flag; count
	// the deposit once
	if !token.IsStaked {
		stakedAt := ev.Timestamp
		token.IsStaked = true
		token.StakedAt = &stakedAt
		addStaked(game, player, token.Species)
	}

	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// applyClaim credits earned ore to the token, its owner, and the game,
// and unwinds staking state when the claim also withdrew the token.
func (e *Engine) applyClaim(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	key := ev.TokenKey().String()

	token, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: claim for %s", domain.ErrTokenNotFound, key)
	}

	player, err := s.GetPlayer(ctx, token.OwnerAddress)
	if err != nil {
		return err
	}
	if player == nil {
		return fmt.Errorf("%w: claim for %s owned by %s", domain.ErrPlayerNotFound, key, token.OwnerAddress)
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	if token.OresClaimed, err = domain.AddAmounts(token.OresClaimed, ev.AmountEarned); err != nil {
		return err
	}
	if player.OresClaimed, err = domain.AddAmounts(player.OresClaimed, ev.AmountEarned); err != nil {
		return err
	}
	if game.OresClaimed, err = domain.AddAmounts(game.OresClaimed, ev.AmountEarned); err != nil {
		return err
	}

	if ev.Unstaked && token.IsStaked {
		token.IsStaked = false
		token.StakedAt = nil
		removeStaked(ctx, game, player, token.Species)
	}

	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}
