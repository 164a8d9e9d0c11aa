package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// applyPassTransfer tracks founder pass movement. Passes are plain
// transfers without the game's theft or staking mechanics, but they feed
// the same owned counters. The token row is created on first sight since
// passes have no separate mint event.
func (e *Engine) applyPassTransfer(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	from := domain.NormalizeAddress(*ev.FromAddress)
	to := domain.NormalizeAddress(*ev.ToAddress)
	if from == to {
		return nil
	}

	key := ev.TokenKey().String()
	token, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		token = &schema.Token{
			ID:              key,
			ContractAddress: domain.NormalizeAddress(ev.ContractAddress),
			TokenNumber:     ev.TokenNumber,
			Species:         domain.SpeciesPass,
			Balance:         1,
			MintBlock:       ev.BlockNumber,
			MintTx:          ev.TxHash,
			MintedAt:        ev.Timestamp,
			OresClaimed:     "0",
		}
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	if domain.IsZeroAddress(to) {
		prev, err := s.GetPlayer(ctx, from)
		if err != nil {
			return err
		}
		if prev != nil {
			decrementOwned(ctx, prev, domain.SpeciesPass)
			if err := s.SavePlayer(ctx, prev); err != nil {
				return err
			}
		}
		token.OwnerAddress = domain.ZeroAddress
		token.Burned = true
		if err := s.SaveToken(ctx, token); err != nil {
			return err
		}
		return s.SaveGame(ctx, game)
	}

	player, err := e.loadPlayer(ctx, s, game, to)
	if err != nil {
		return err
	}

	if domain.IsZeroAddress(from) {
		addMinted(game, player, domain.SpeciesPass)
		if token.OwnerAddress == player.Address {
			// another unit of a pass id the player already holds
			token.Balance++
		} else {
			incrementOwned(player, domain.SpeciesPass)
			token.OwnerAddress = player.Address
		}
	} else {
		prev, created, err := s.GetOrCreatePlayer(ctx, from)
		if err != nil {
			return err
		}
		if created {
			game.NumPlayers++
			logger.WarnCtx(ctx, "materialized missing prior pass owner",
				zap.String("player", from),
				zap.String("token", key))
		}
		decrementOwned(ctx, prev, domain.SpeciesPass)
		if err := s.SavePlayer(ctx, prev); err != nil {
			return err
		}
		incrementOwned(player, domain.SpeciesPass)
		token.OwnerAddress = player.Address
	}

	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}
