package rest

import (
	"encoding/json"
	"time"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// GameResponse represents the game-wide aggregate
type GameResponse struct {
	ID                  string    `json:"id"`
	MarinesMinted       int64     `json:"marines_minted"`
	AliensMinted        int64     `json:"aliens_minted"`
	MarinesStaked       int64     `json:"marines_staked"`
	AliensStaked        int64     `json:"aliens_staked"`
	MarinesStolen       int64     `json:"marines_stolen"`
	AliensStolen        int64     `json:"aliens_stolen"`
	MarinesBurned       int64     `json:"marines_burned"`
	AliensBurned        int64     `json:"aliens_burned"`
	FounderPassesMinted int64     `json:"founder_passes_minted"`
	NumPlayers          int64     `json:"num_players"`
	MintsCommitted      string    `json:"mints_committed"`
	MintsRevealed       string    `json:"mints_revealed"`
	OresClaimed         string    `json:"ores_claimed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PlayerResponse represents per-address aggregates
type PlayerResponse struct {
	Address string `json:"address"`

	MarinesOwned       int64 `json:"marines_owned"`
	AliensOwned        int64 `json:"aliens_owned"`
	FounderPassesOwned int64 `json:"founder_passes_owned"`
	TokensOwned        int64 `json:"tokens_owned"`

	MarinesMinted       int64 `json:"marines_minted"`
	AliensMinted        int64 `json:"aliens_minted"`
	FounderPassesMinted int64 `json:"founder_passes_minted"`
	TokensMinted        int64 `json:"tokens_minted"`

	MarinesStaked int64 `json:"marines_staked"`
	AliensStaked  int64 `json:"aliens_staked"`
	TokensStaked  int64 `json:"tokens_staked"`

	MarinesStolen int64 `json:"marines_stolen"`
	AliensStolen  int64 `json:"aliens_stolen"`
	TokensStolen  int64 `json:"tokens_stolen"`

	MarinesLost int64 `json:"marines_lost"`
	AliensLost  int64 `json:"aliens_lost"`
	TokensLost  int64 `json:"tokens_lost"`

	OresClaimed string    `json:"ores_claimed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenTraits represents the trait fields decoded from token metadata
type TokenTraits struct {
	Eyes        string `json:"eyes,omitempty"`
	Back        string `json:"back,omitempty"`
	Body        string `json:"body,omitempty"`
	WeaponMouth string `json:"weapon_mouth,omitempty"`
	Headgear    string `json:"headgear,omitempty"`
	Emblem      string `json:"emblem,omitempty"`
	Generation  string `json:"generation,omitempty"`
	Rank        *int64 `json:"rank,omitempty"`
}

// TokenResponse represents a single game token
type TokenResponse struct {
	ID              string         `json:"id"`
	ContractAddress string         `json:"contract_address"`
	TokenNumber     string         `json:"token_number"`
	Species         domain.Species `json:"species"`
	OwnerAddress    string         `json:"owner_address"`
	Balance         int64          `json:"balance"`
	IsStaked        bool           `json:"is_staked"`
	StakedAt        *time.Time     `json:"staked_at,omitempty"`
	Burned          bool           `json:"burned"`
	MintBlock       uint64         `json:"mint_block"`
	MintTx          string         `json:"mint_tx,omitempty"`
	MintedAt        time.Time      `json:"minted_at"`
	OresClaimed     string         `json:"ores_claimed"`

	// Traits is nil until metadata has been resolved
	Traits   *TokenTraits    `json:"traits,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TokenListResponse represents a paginated token list
type TokenListResponse struct {
	Tokens []TokenResponse `json:"tokens"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// TraitResponse represents a trait population entry
type TraitResponse struct {
	Species domain.Species `json:"species"`
	Field   string         `json:"field"`
	Value   string         `json:"value"`
	Count   int64          `json:"count"`
	Rarity  float64        `json:"rarity"`
}

// TheftResponse represents a mint theft record
type TheftResponse struct {
	ID              string         `json:"id"`
	ContractAddress string         `json:"contract_address"`
	TokenNumber     string         `json:"token_number"`
	Species         domain.Species `json:"species"`
	VictimAddress   string         `json:"victim_address"`
	ThiefAddress    string         `json:"thief_address,omitempty"`
	StolenAtBlock   uint64         `json:"stolen_at_block"`
	StolenTx        string         `json:"stolen_tx,omitempty"`
	StolenAt        time.Time      `json:"stolen_at"`
	Resolved        bool           `json:"resolved"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
}

// TheftListResponse represents a paginated theft list
type TheftListResponse struct {
	Thefts []TheftResponse `json:"thefts"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func gameResponse(game *schema.Game) GameResponse {
	return GameResponse{
		ID:                  game.ID,
		MarinesMinted:       game.MarinesMinted,
		AliensMinted:        game.AliensMinted,
		MarinesStaked:       game.MarinesStaked,
		AliensStaked:        game.AliensStaked,
		MarinesStolen:       game.MarinesStolen,
		AliensStolen:        game.AliensStolen,
		MarinesBurned:       game.MarinesBurned,
		AliensBurned:        game.AliensBurned,
		FounderPassesMinted: game.FounderPassesMinted,
		NumPlayers:          game.NumPlayers,
		MintsCommitted:      game.MintsCommitted,
		MintsRevealed:       game.MintsRevealed,
		OresClaimed:         game.OresClaimed,
		UpdatedAt:           game.UpdatedAt,
	}
}

func playerResponse(player *schema.Player) PlayerResponse {
	return PlayerResponse{
		Address:             player.Address,
		MarinesOwned:        player.MarinesOwned,
		AliensOwned:         player.AliensOwned,
		FounderPassesOwned:  player.FounderPassesOwned,
		TokensOwned:         player.TokensOwned,
		MarinesMinted:       player.MarinesMinted,
		AliensMinted:        player.AliensMinted,
		FounderPassesMinted: player.FounderPassesMinted,
		TokensMinted:        player.TokensMinted,
		MarinesStaked:       player.MarinesStaked,
		AliensStaked:        player.AliensStaked,
		TokensStaked:        player.TokensStaked,
		MarinesStolen:       player.MarinesStolen,
		AliensStolen:        player.AliensStolen,
		TokensStolen:        player.TokensStolen,
		MarinesLost:         player.MarinesLost,
		AliensLost:          player.AliensLost,
		TokensLost:          player.TokensLost,
		OresClaimed:         player.OresClaimed,
		UpdatedAt:           player.UpdatedAt,
	}
}

func tokenResponse(token *schema.Token) TokenResponse {
	resp := TokenResponse{
		ID:              token.ID,
		ContractAddress: token.ContractAddress,
		TokenNumber:     token.TokenNumber,
		Species:         token.Species,
		OwnerAddress:    token.OwnerAddress,
		Balance:         token.Balance,
		IsStaked:        token.IsStaked,
		StakedAt:        token.StakedAt,
		Burned:          token.Burned,
		MintBlock:       token.MintBlock,
		MintTx:          token.MintTx,
		MintedAt:        token.MintedAt,
		OresClaimed:     token.OresClaimed,
		UpdatedAt:       token.UpdatedAt,
	}

	if len(token.RawMetadata) > 0 {
		resp.Traits = &TokenTraits{
			Eyes:        token.Eyes,
			Back:        token.Back,
			Body:        token.Body,
			WeaponMouth: token.WeaponMouth,
			Headgear:    token.Headgear,
			Emblem:      token.Emblem,
			Generation:  token.Generation,
			Rank:        token.Rank,
		}
		resp.Metadata = json.RawMessage(token.RawMetadata)
	}

	return resp
}

func traitResponse(trait *schema.Trait) TraitResponse {
	return TraitResponse{
		Species: trait.Species,
		Field:   trait.Field,
		Value:   trait.Value,
		Count:   trait.Count,
		Rarity:  trait.Rarity,
	}
}

func theftResponse(stolen *schema.StolenToken) TheftResponse {
	return TheftResponse{
		ID:              stolen.ID,
		ContractAddress: stolen.ContractAddress,
		TokenNumber:     stolen.TokenNumber,
		Species:         stolen.Species,
		VictimAddress:   stolen.VictimAddress,
		ThiefAddress:    stolen.ThiefAddress,
		StolenAtBlock:   stolen.StolenAtBlock,
		StolenTx:        stolen.StolenTx,
		StolenAt:        stolen.StolenAt,
		Resolved:        stolen.ResolvedAt != nil,
		ResolvedAt:      stolen.ResolvedAt,
	}
}
