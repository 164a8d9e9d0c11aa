package schema

import (
	"time"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// Contract represents the contracts table - the watched game contracts,
// recorded the first time an event from each is applied.
type Contract struct {
	Address string              `gorm:"column:address;primaryKey;type:text"`
	Kind    domain.ContractKind `gorm:"column:kind;not null;type:text"`
	Name    string              `gorm:"column:name;type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Contract model
func (Contract) TableName() string {
	return "contracts"
}
