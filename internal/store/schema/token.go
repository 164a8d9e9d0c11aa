package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// Token represents the tokens table - one row per game token.
// ID is the composite key contract-tokenNumber since token numbers are
// only unique within a contract.
type Token struct {
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ContractAddress is the lowercase address of the token contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text;index:idx_tokens_contract_number,priority:1"`
	// TokenNumber is the token ID within the contract (string to support very large numbers)
	TokenNumber string `gorm:"column:token_number;not null;type:text;index:idx_tokens_contract_number,priority:2"`
	// Species is the game-defined category of the token
	Species domain.Species `gorm:"column:species;not null;type:text;index"`
	// OwnerAddress is the current owner. While staked this stays the
	// depositing player, not the pool contract.
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;index"`
	// Balance is the held quantity. Always 1 for game tokens, may exceed 1
	// for founder passes.
	Balance int64 `gorm:"column:balance;not null;default:1"`
	// IsStaked indicates the token currently sits in the staking pool
	IsStaked bool `gorm:"column:is_staked;not null;default:false"`
	// StakedAt is when the token entered the pool, nil when not staked
	StakedAt *time.Time `gorm:"column:staked_at"`
	// Burned indicates the token has been permanently destroyed
	Burned bool `gorm:"column:burned;not null;default:false"`
	// MintBlock is the block the token was minted in
	MintBlock uint64 `gorm:"column:mint_block;not null;default:0"`
	// MintTx is the hash of the minting transaction
	MintTx string `gorm:"column:mint_tx;type:text"`
	// MintedAt is the block timestamp of the mint
	MintedAt time.Time `gorm:"column:minted_at"`
	// OresClaimed is the cumulative ore earned by this token (chain integer, decimal string)
	OresClaimed string `gorm:"column:ores_claimed;not null;default:'0';type:numeric(78,0)"`

	// Trait fields decoded from token metadata, empty until metadata is resolved
	Eyes        string `gorm:"column:eyes;type:text"`
	Back        string `gorm:"column:back;type:text"`
	Body        string `gorm:"column:body;type:text"`
	WeaponMouth string `gorm:"column:weapon_mouth;type:text"`
	Headgear    string `gorm:"column:headgear;type:text"`
	Emblem      string `gorm:"column:emblem;type:text"`
	Generation  string `gorm:"column:generation;type:text"`
	// Rank is the rank score from metadata, nil until resolved
	Rank *int64 `gorm:"column:rank"`
	// RawMetadata is the full decoded metadata JSON document
	RawMetadata datatypes.JSON `gorm:"column:raw_metadata;type:jsonb"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
