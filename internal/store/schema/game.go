package schema

import "time"

// Game represents the games table - the singleton aggregate holding
// game-wide counters. There is exactly one row, keyed by the well-known
// game ID.
type Game struct {
	// ID is the well-known game identifier
	ID string `gorm:"column:id;primaryKey;type:text"`
	// MarinesMinted counts marines ever minted
	MarinesMinted int64 `gorm:"column:marines_minted;not null;default:0"`
	// AliensMinted counts aliens ever minted
	AliensMinted int64 `gorm:"column:aliens_minted;not null;default:0"`
	// MarinesStaked counts marines currently staked in the pool
	MarinesStaked int64 `gorm:"column:marines_staked;not null;default:0"`
	// AliensStaked counts aliens currently staked in the pool
	AliensStaked int64 `gorm:"column:aliens_staked;not null;default:0"`
	// MarinesStolen counts marines stolen at mint
	MarinesStolen int64 `gorm:"column:marines_stolen;not null;default:0"`
	// AliensStolen counts aliens stolen at mint
	AliensStolen int64 `gorm:"column:aliens_stolen;not null;default:0"`
	// MarinesBurned counts marines permanently destroyed
	MarinesBurned int64 `gorm:"column:marines_burned;not null;default:0"`
	// AliensBurned counts aliens permanently destroyed
	AliensBurned int64 `gorm:"column:aliens_burned;not null;default:0"`
	// FounderPassesMinted counts founder passes ever minted
	FounderPassesMinted int64 `gorm:"column:founder_passes_minted;not null;default:0"`
	// NumPlayers counts distinct addresses ever seen as players
	NumPlayers int64 `gorm:"column:num_players;not null;default:0"`
	// MintsCommitted is the cumulative committed mint count (chain integer, decimal string)
	MintsCommitted string `gorm:"column:mints_committed;not null;default:'0';type:numeric(78,0)"`
	// MintsRevealed is the cumulative revealed mint count (chain integer, decimal string)
	MintsRevealed string `gorm:"column:mints_revealed;not null;default:'0';type:numeric(78,0)"`
	// OresClaimed is the cumulative ore ever claimed from the pool (chain integer, decimal string)
	OresClaimed string `gorm:"column:ores_claimed;not null;default:'0';type:numeric(78,0)"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Game model
func (Game) TableName() string {
	return "games"
}
