package schema

import "time"

// Player represents the players table - per-address ownership aggregates.
// Address is lowercase hex and is the primary key. Total counters are
// maintained in lockstep with their species-specific counterparts.
type Player struct {
	Address string `gorm:"column:address;primaryKey;type:text"`

	// Owned counts cover currently-held tokens, staked ones included
	MarinesOwned       int64 `gorm:"column:marines_owned;not null;default:0"`
	AliensOwned        int64 `gorm:"column:aliens_owned;not null;default:0"`
	FounderPassesOwned int64 `gorm:"column:founder_passes_owned;not null;default:0"`
	TokensOwned        int64 `gorm:"column:tokens_owned;not null;default:0"`

	// Minted counts are cumulative
	MarinesMinted       int64 `gorm:"column:marines_minted;not null;default:0"`
	AliensMinted        int64 `gorm:"column:aliens_minted;not null;default:0"`
	FounderPassesMinted int64 `gorm:"column:founder_passes_minted;not null;default:0"`
	TokensMinted        int64 `gorm:"column:tokens_minted;not null;default:0"`

	// Staked counts cover tokens currently in the pool
	MarinesStaked int64 `gorm:"column:marines_staked;not null;default:0"`
	AliensStaked  int64 `gorm:"column:aliens_staked;not null;default:0"`
	TokensStaked  int64 `gorm:"column:tokens_staked;not null;default:0"`

	// Stolen counts tokens gained through mint theft
	MarinesStolen int64 `gorm:"column:marines_stolen;not null;default:0"`
	AliensStolen  int64 `gorm:"column:aliens_stolen;not null;default:0"`
	TokensStolen  int64 `gorm:"column:tokens_stolen;not null;default:0"`

	// Lost counts tokens lost to mint theft
	MarinesLost int64 `gorm:"column:marines_lost;not null;default:0"`
	AliensLost  int64 `gorm:"column:aliens_lost;not null;default:0"`
	TokensLost  int64 `gorm:"column:tokens_lost;not null;default:0"`

	// OresClaimed is the cumulative ore claimed by this player (chain integer, decimal string)
	OresClaimed string `gorm:"column:ores_claimed;not null;default:'0';type:numeric(78,0)"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Player model
func (Player) TableName() string {
	return "players"
}
