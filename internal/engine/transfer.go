package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// applyTransfer classifies an ERC-721 transfer on the game contract into
// one of the seven game transitions and applies the matching mutation.
// The mint event earlier in the same transaction is expected to have
// created the token, so an unknown token is a fatal inconsistency.
func (e *Engine) applyTransfer(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	from := domain.NormalizeAddress(*ev.FromAddress)
	to := domain.NormalizeAddress(*ev.ToAddress)
	caller := domain.NormalizeAddress(ev.TxCaller)

	token, err := s.GetToken(ctx, ev.TokenKey().String())
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: transfer for %s", domain.ErrTokenNotFound, ev.TokenKey())
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	// A pending theft record means this transfer delivers the stolen token
	// to its true recipient.
	stolen, err := s.GetStolenToken(ctx, token.ID)
	if err != nil {
		return err
	}
	if stolen != nil && stolen.ThiefAddress == "" &&
		!domain.IsZeroAddress(to) && !e.registry.IsStakingPool(to) {
		return e.resolveTheft(ctx, s, game, token, stolen, from, to, ev)
	}

	if domain.IsZeroAddress(to) {
		// the burn event in the same transaction carries the state change
		logger.DebugCtx(ctx, "ignoring transfer to zero address", zap.String("token", token.ID))
		return nil
	}

	// Decision order matters: each branch assumes the preceding guards
	// did not match.
	switch {
	case to == token.OwnerAddress:
		// custody-only return leg of an unstake; logical owner unchanged
		return nil
	case e.registry.IsStakingPool(to) && !domain.IsZeroAddress(from):
		return e.transferStake(ctx, s, game, token, from, ev)
	case e.registry.IsStakingPool(from):
		return e.transferUnstake(ctx, s, game, token, to)
	case domain.IsZeroAddress(from) && e.registry.IsStakingPool(to):
		return e.transferMintAndStake(ctx, s, game, token, caller, ev)
	case domain.IsZeroAddress(from) && to != caller:
		return e.transferMintStolen(ctx, s, game, token, caller, ev)
	case domain.IsZeroAddress(from):
		return e.transferMintToCaller(ctx, s, game, token, to)
	case !domain.IsZeroAddress(from):
		return e.transferPlayerToPlayer(ctx, s, game, token, from, to)
	}

	return fmt.Errorf("%w: token %s from %s to %s", domain.ErrUnclassifiedTransfer, token.ID, from, to)
}

// transferStake handles the custody leg of a stake. Ownership stays with
// the depositor; the authoritative pool Staked event for the same deposit
// is deduplicated through the isStaked flag.
func (e *Engine) transferStake(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, from string, ev *domain.GameEvent) error {
	if !token.IsStaked {
		player, err := e.loadPlayer(ctx, s, game, from)
		if err != nil {
			return err
		}
		stakedAt := ev.Timestamp
		token.IsStaked = true
		token.StakedAt = &stakedAt
		addStaked(game, player, token.Species)
		if err := s.SavePlayer(ctx, player); err != nil {
			return err
		}
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// transferUnstake handles a token leaving pool custody toward an address
// other than its recorded owner. The common unstake return leg (to ==
// owner) never reaches here, and the claim event already clears staking
// state, so this branch firing at all is unusual.
func (e *Engine) transferUnstake(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, to string) error {
	if token.IsStaked {
		logger.WarnCtx(ctx, "unstake delivered to non-owner address",
			zap.String("token", token.ID),
			zap.String("owner", token.OwnerAddress),
			zap.String("to", to))
		player, err := e.loadPlayer(ctx, s, game, token.OwnerAddress)
		if err != nil {
			return err
		}
		token.IsStaked = false
		token.StakedAt = nil
		removeStaked(ctx, game, player, token.Species)
		if err := s.SavePlayer(ctx, player); err != nil {
			return err
		}
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// transferMintAndStake handles a token minted directly into the pool. The
// minting caller is the logical owner from the start.
func (e *Engine) transferMintAndStake(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, caller string, ev *domain.GameEvent) error {
	player, err := e.loadPlayer(ctx, s, game, caller)
	if err != nil {
		return err
	}
	incrementOwned(player, token.Species)
	token.OwnerAddress = player.Address
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

// transferMintStolen handles a mint delivered to an address other than the
// transaction caller: the game stole the token and the true recipient is
// unknown yet. Only a theft record is created here; ownership and the
// stolen/lost counters move when a later transfer resolves the thief.
func (e *Engine) transferMintStolen(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, caller string, ev *domain.GameEvent) error {
	existing, err := s.GetStolenToken(ctx, token.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := e.recordTheft(ctx, s, game, token, caller, ev); err != nil {
			return err
		}
	}
	return s.SaveGame(ctx, game)
}

func (e *Engine) transferMintToCaller(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, to string) error {
	player, err := e.loadPlayer(ctx, s, game, to)
	if err != nil {
		return err
	}
	incrementOwned(player, token.Species)
	token.OwnerAddress = player.Address
	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

func (e *Engine) transferPlayerToPlayer(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, from, to string) error {
	prev, created, err := s.GetOrCreatePlayer(ctx, from)
	if err != nil {
		return err
	}
	if created {
		// the sender should have been created by its own mint or receive
		game.NumPlayers++
		logger.WarnCtx(ctx, "materialized missing prior owner",
			zap.String("player", from),
			zap.String("token", token.ID))
	}
	decrementOwned(ctx, prev, token.Species)
	if err := s.SavePlayer(ctx, prev); err != nil {
		return err
	}

	next, err := e.loadPlayer(ctx, s, game, to)
	if err != nil {
		return err
	}
	incrementOwned(next, token.Species)
	token.OwnerAddress = next.Address
	if err := s.SavePlayer(ctx, next); err != nil {
		return err
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// resolveTheft fills in the thief on a pending theft record and moves
// ownership and the stolen/lost counters accordingly.
func (e *Engine) resolveTheft(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, stolen *schema.StolenToken, from, to string, ev *domain.GameEvent) error {
	thief, err := e.loadPlayer(ctx, s, game, to)
	if err != nil {
		return err
	}
	victim := thief
	if stolen.VictimAddress != thief.Address {
		victim, err = e.loadPlayer(ctx, s, game, stolen.VictimAddress)
		if err != nil {
			return err
		}
	}

	resolvedAt := ev.Timestamp
	stolen.ThiefAddress = thief.Address
	stolen.ResolvedAt = &resolvedAt

	addLost(victim, token.Species)
	addStolen(thief, token.Species)

	// On the usual mint-leg delivery from is the zero address and nobody
	// held the owned count yet; otherwise move it off the sender.
	if !domain.IsZeroAddress(from) {
		switch from {
		case thief.Address:
			decrementOwned(ctx, thief, token.Species)
		case victim.Address:
			decrementOwned(ctx, victim, token.Species)
		default:
			prev, err := s.GetPlayer(ctx, from)
			if err != nil {
				return err
			}
			if prev != nil {
				decrementOwned(ctx, prev, token.Species)
				if err := s.SavePlayer(ctx, prev); err != nil {
					return err
				}
			}
		}
	}
	incrementOwned(thief, token.Species)
	token.OwnerAddress = thief.Address

	if err := s.SaveStolenToken(ctx, stolen); err != nil {
		return err
	}
	if err := s.SavePlayer(ctx, thief); err != nil {
		return err
	}
	if victim != thief {
		if err := s.SavePlayer(ctx, victim); err != nil {
			return err
		}
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}
