package schema

import (
	"fmt"
	"time"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// Trait represents the traits table - population counts and rarity per
// trait value, maintained as token metadata is resolved.
type Trait struct {
	// ID is the composite key species-field-value
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Species the trait belongs to
	Species domain.Species `gorm:"column:species;not null;type:text;index"`
	// Field is the token attribute the value appears in (eyes, back, ...)
	Field string `gorm:"column:field;not null;type:text"`
	// Value is the trait value as it appears in metadata
	Value string `gorm:"column:value;not null;type:text"`
	// Count is the number of resolved tokens carrying this value
	Count int64 `gorm:"column:count;not null;default:0"`
	// Rarity is Count divided by the species total supply
	Rarity float64 `gorm:"column:rarity;not null;default:0"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TraitID derives the composite trait key
func TraitID(species domain.Species, field, value string) string {
	return fmt.Sprintf("%s-%s-%s", species, field, value)
}

// TableName specifies the table name for the Trait model
func (Trait) TableName() string {
	return "traits"
}
