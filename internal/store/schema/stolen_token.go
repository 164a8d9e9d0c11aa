package schema

import (
	"time"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// StolenToken represents the stolen_tokens table - one row per theft at
// mint. The row is created when the steal is announced on chain and the
// thief is filled in once the delivering transfer arrives.
type StolenToken struct {
	// ID is the composite token key contract-tokenNumber
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ContractAddress is the lowercase address of the token contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text"`
	// TokenNumber is the token ID within the contract
	TokenNumber string `gorm:"column:token_number;not null;type:text"`
	// Species of the stolen token
	Species domain.Species `gorm:"column:species;not null;type:text"`
	// VictimAddress is the minter the token was stolen from
	VictimAddress string `gorm:"column:victim_address;not null;type:text;index"`
	// ThiefAddress is the receiving staker, empty until the theft resolves
	ThiefAddress string `gorm:"column:thief_address;type:text;index"`
	// StolenAtBlock is the block of the theft announcement
	StolenAtBlock uint64 `gorm:"column:stolen_at_block;not null"`
	// StolenTx is the hash of the minting transaction
	StolenTx string `gorm:"column:stolen_tx;type:text"`
	// StolenAt is the block timestamp of the theft announcement
	StolenAt time.Time `gorm:"column:stolen_at"`
	// ResolvedAt is when the thief became known, nil while pending
	ResolvedAt *time.Time `gorm:"column:resolved_at"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the StolenToken model
func (StolenToken) TableName() string {
	return "stolen_tokens"
}
