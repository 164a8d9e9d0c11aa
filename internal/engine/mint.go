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

// applyMint creates the token record and bumps mint counters. Owned
// counters are not touched here: the transfer event in the same
// transaction decides who actually ends up holding the token.
func (e *Engine) applyMint(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	key := ev.TokenKey().String()

	existing, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.WarnCtx(ctx, "mint for already-known token", zap.String("token", key))
		return nil
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}
	player, err := e.loadPlayer(ctx, s, game, ev.TxCaller)
	if err != nil {
		return err
	}

	addMinted(game, player, ev.Species)

	// the owner stays unset until the transfer event in the same
	// transaction decides where the token lands (caller, pool, or thief)
	token := &schema.Token{
		ID:              key,
		ContractAddress: domain.NormalizeAddress(ev.ContractAddress),
		TokenNumber:     ev.TokenNumber,
		Species:         ev.Species,
		Balance:         1,
		MintBlock:       ev.BlockNumber,
		MintTx:          ev.TxHash,
		MintedAt:        ev.Timestamp,
		OresClaimed:     "0",
	}

	if err := s.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := s.SavePlayer(ctx, player); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// applyTheftAnnounced opens a theft record for a mint-time steal. The
// thief is unknown at this point; the delivering transfer fills it in.
func (e *Engine) applyTheftAnnounced(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	key := ev.TokenKey().String()

	token, err := s.GetToken(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: theft announced for %s", domain.ErrTokenNotFound, key)
	}

	existing, err := s.GetStolenToken(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}
	if err := e.recordTheft(ctx, s, game, token, ev.TxCaller, ev); err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}

// recordTheft creates the pending theft record and bumps the game-wide
// stolen counter. Player stolen/lost counters move at resolution time.
func (e *Engine) recordTheft(ctx context.Context, s store.Store, game *schema.Game, token *schema.Token, victim string, ev *domain.GameEvent) error {
	stolen := &schema.StolenToken{
		ID:              token.ID,
		ContractAddress: token.ContractAddress,
		TokenNumber:     token.TokenNumber,
		Species:         token.Species,
		VictimAddress:   domain.NormalizeAddress(victim),
		StolenAtBlock:   ev.BlockNumber,
		StolenTx:        ev.TxHash,
		StolenAt:        ev.Timestamp,
	}
	switch token.Species {
	case domain.SpeciesMarine:
		game.MarinesStolen++
	case domain.SpeciesAlien:
		game.AliensStolen++
	}
	return s.SaveStolenToken(ctx, stolen)
}

// applyMintProgress accumulates the commit/reveal totals published by the
// mint controller contract. Amounts are chain integers carried as decimal
// strings.
func (e *Engine) applyMintProgress(ctx context.Context, s store.Store, ev *domain.GameEvent) error {
	game, err := s.GetOrCreateGame(ctx, domain.GameID)
	if err != nil {
		return err
	}

	switch ev.EventType {
	case domain.EventTypeMintCommitted:
		game.MintsCommitted, err = domain.AddAmounts(game.MintsCommitted, ev.Amount)
	case domain.EventTypeMintRevealed:
		game.MintsRevealed, err = domain.AddAmounts(game.MintsRevealed, ev.Amount)
	}
	if err != nil {
		return err
	}
	return s.SaveGame(ctx, game)
}
