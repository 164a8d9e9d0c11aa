package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// incrementOwned and decrementOwned are the only mutation path for owned
// counters. They always move the species-specific counter and the total
// together, so the two can never drift apart.

func incrementOwned(player *schema.Player, species domain.Species) {
	switch species {
	case domain.SpeciesMarine:
		player.MarinesOwned++
	case domain.SpeciesAlien:
		player.AliensOwned++
	case domain.SpeciesPass:
		player.FounderPassesOwned++
	}
	player.TokensOwned++
}

// decrementOwned clamps at zero instead of going negative. An underflow
// means an earlier event was missed upstream; the counter is repaired
// here and the anomaly logged.
func decrementOwned(ctx context.Context, player *schema.Player, species domain.Species) {
	underflow := false
	switch species {
	case domain.SpeciesMarine:
		if player.MarinesOwned > 0 {
			player.MarinesOwned--
		} else {
			underflow = true
		}
	case domain.SpeciesAlien:
		if player.AliensOwned > 0 {
			player.AliensOwned--
		} else {
			underflow = true
		}
	case domain.SpeciesPass:
		if player.FounderPassesOwned > 0 {
			player.FounderPassesOwned--
		} else {
			underflow = true
		}
	}
	if player.TokensOwned > 0 {
		player.TokensOwned--
	} else {
		underflow = true
	}
	if underflow {
		logger.WarnCtx(ctx, "owned counter underflow clamped",
			zap.String("player", player.Address),
			zap.String("species", string(species)))
	}
}

// addMinted bumps cumulative mint counters on the game and the minter
func addMinted(game *schema.Game, player *schema.Player, species domain.Species) {
	switch species {
	case domain.SpeciesMarine:
		game.MarinesMinted++
		player.MarinesMinted++
	case domain.SpeciesAlien:
		game.AliensMinted++
		player.AliensMinted++
	case domain.SpeciesPass:
		game.FounderPassesMinted++
		player.FounderPassesMinted++
	}
	player.TokensMinted++
}

// addStaked bumps the currently-staked counters on the game and the staker
func addStaked(game *schema.Game, player *schema.Player, species domain.Species) {
	switch species {
	case domain.SpeciesMarine:
		game.MarinesStaked++
		player.MarinesStaked++
	case domain.SpeciesAlien:
		game.AliensStaked++
		player.AliensStaked++
	}
	player.TokensStaked++
}

// removeStaked is the inverse of addStaked, clamped at zero
func removeStaked(ctx context.Context, game *schema.Game, player *schema.Player, species domain.Species) {
	underflow := false
	switch species {
	case domain.SpeciesMarine:
		if game.MarinesStaked > 0 {
			game.MarinesStaked--
		} else {
			underflow = true
		}
		if player.MarinesStaked > 0 {
			player.MarinesStaked--
		} else {
			underflow = true
		}
	case domain.SpeciesAlien:
		if game.AliensStaked > 0 {
			game.AliensStaked--
		} else {
			underflow = true
		}
		if player.AliensStaked > 0 {
			player.AliensStaked--
		} else {
			underflow = true
		}
	}
	if player.TokensStaked > 0 {
		player.TokensStaked--
	} else {
		underflow = true
	}
	if underflow {
		logger.WarnCtx(ctx, "staked counter underflow clamped",
			zap.String("player", player.Address),
			zap.String("species", string(species)))
	}
}

// addStolen bumps the thief's cumulative theft gains
func addStolen(player *schema.Player, species domain.Species) {
	switch species {
	case domain.SpeciesMarine:
		player.MarinesStolen++
	case domain.SpeciesAlien:
		player.AliensStolen++
	}
	player.TokensStolen++
}

// addLost bumps the victim's cumulative theft losses
func addLost(player *schema.Player, species domain.Species) {
	switch species {
	case domain.SpeciesMarine:
		player.MarinesLost++
	case domain.SpeciesAlien:
		player.AliensLost++
	}
	player.TokensLost++
}
