package engine

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// TokenAttribute is one decoded name/value pair from token metadata
type TokenAttribute struct {
	Name  string
	Value string
}

// traitFieldByName is the closed mapping from on-chain attribute names to
// token trait columns. Marine and alien attributes are prefixed per
// species and land in the same columns; unmapped names are skipped.
var traitFieldByName = map[string]string{
	"A_Eyes":     "eyes",
	"M_Eyes":     "eyes",
	"A_Back":     "back",
	"M_Back":     "back",
	"A_Body":     "body",
	"M_Body":     "body",
	"A_Mouth":    "weaponMouth",
	"M_Weapon":   "weaponMouth",
	"A_Headgear": "headgear",
	"M_Headgear": "headgear",
	"M_Emblem":   "emblem",
}

// ApplyMetadata stores decoded metadata on a token and maintains the
// per-trait population counts. Trait counts only move the first time a
// token's metadata resolves, so re-resolving is idempotent.
func (e *Engine) ApplyMetadata(ctx context.Context, tokenID string, attributes []TokenAttribute, raw []byte) error {
	return e.store.Atomically(ctx, func(s store.Store) error {
		token, err := s.GetToken(ctx, tokenID)
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("%w: metadata for %s", domain.ErrTokenNotFound, tokenID)
		}

		firstResolve := len(token.RawMetadata) == 0

		for _, attr := range attributes {
			if field, ok := traitFieldByName[attr.Name]; ok {
				setTraitField(token, field, attr.Value)
				if firstResolve {
					if err := bumpTrait(ctx, s, token.Species, field, attr.Value); err != nil {
						return err
					}
				}
				continue
			}

			switch attr.Name {
			case "Rank Score":
				rank, err := strconv.ParseInt(attr.Value, 10, 64)
				if err != nil {
					logger.WarnCtx(ctx, "unparseable rank score",
						zap.String("token", tokenID),
						zap.String("value", attr.Value))
					continue
				}
				token.Rank = &rank
			case "Generation":
				token.Generation = attr.Value
			case "Type":
				// species is already known from the mint event
			default:
				logger.WarnCtx(ctx, "unknown metadata attribute",
					zap.String("token", tokenID),
					zap.String("name", attr.Name))
			}
		}

		if len(raw) > 0 {
			token.RawMetadata = datatypes.JSON(raw)
		}
		return s.SaveToken(ctx, token)
	})
}

func setTraitField(token *schema.Token, field, value string) {
	switch field {
	case "eyes":
		token.Eyes = value
	case "back":
		token.Back = value
	case "body":
		token.Body = value
	case "weaponMouth":
		token.WeaponMouth = value
	case "headgear":
		token.Headgear = value
	case "emblem":
		token.Emblem = value
	}
}

// bumpTrait increments the population count for one trait value and
// recomputes its rarity against the species total supply.
func bumpTrait(ctx context.Context, s store.Store, species domain.Species, field, value string) error {
	id := schema.TraitID(species, field, value)
	trait, err := s.GetTrait(ctx, id)
	if err != nil {
		return err
	}
	if trait == nil {
		trait = &schema.Trait{
			ID:      id,
			Species: species,
			Field:   field,
			Value:   value,
		}
	}
	trait.Count++
	if supply := domain.SpeciesSupply(species); supply > 0 {
		trait.Rarity = float64(trait.Count) / float64(supply)
	}
	return s.SaveTrait(ctx, trait)
}
