package domain

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Species represents the token's game-defined category. Each species is
// tracked with independent counters on Game and Player.
type Species string

const (
	SpeciesMarine Species = "Marine"
	SpeciesAlien  Species = "Alien"
	SpeciesPass   Species = "FounderPass"
)

// IsValidSpecies checks if a species is one the game tracks
func IsValidSpecies(s Species) bool {
	return s == SpeciesMarine || s == SpeciesAlien || s == SpeciesPass
}

// SpeciesFromFlag maps the staking pool contract's isMarine flag to a species
func SpeciesFromFlag(isMarine bool) Species {
	if isMarine {
		return SpeciesMarine
	}
	return SpeciesAlien
}

// GameEventType represents the type of decoded game event
type GameEventType string

const (
	EventTypeTransfer      GameEventType = "transfer"
	EventTypeMint          GameEventType = "mint"
	EventTypeTheft         GameEventType = "theft"
	EventTypeStake         GameEventType = "stake"
	EventTypeClaim         GameEventType = "claim"
	EventTypeBurn          GameEventType = "burn"
	EventTypeMintCommitted GameEventType = "mint_committed"
	EventTypeMintRevealed  GameEventType = "mint_revealed"
	EventTypePassTransfer  GameEventType = "pass_transfer"
)

// TokenKey is the composite token identifier in format: contract-tokenNumber
// (e.g., "0xabc...-1234"). The same on-chain token id may recur across
// different contracts, so the contract address is part of the key.
type TokenKey string

// NewTokenKey derives the composite key from a contract address and token number
func NewTokenKey(contractAddress, tokenNumber string) TokenKey {
	return TokenKey(fmt.Sprintf("%s-%s", NormalizeAddress(contractAddress), tokenNumber))
}

// String returns the string representation of the TokenKey
func (k TokenKey) String() string {
	return string(k)
}

// Parse splits the TokenKey into contract address and token number
func (k TokenKey) Parse() (string, string) {
	parts := strings.SplitN(string(k), "-", 2)
	if len(parts) != 2 {
		return string(k), ""
	}
	return parts[0], parts[1]
}

// Valid checks if the TokenKey is well formed
func (k TokenKey) Valid() bool {
	contract, number := k.Parse()
	return common.IsHexAddress(contract) && validTokenNumber(number)
}

// GameEvent represents a normalized, decoded game event.
// This is the standard format published to NATS and consumed by the engine.
type GameEvent struct {
	EventType       GameEventType `json:"event_type"`
	ContractAddress string        `json:"contract_address"`
	TokenNumber     string        `json:"token_number,omitempty"`
	Species         Species       `json:"species,omitempty"`
	FromAddress     *string       `json:"from_address,omitempty"`   // transfer/pass_transfer
	ToAddress       *string       `json:"to_address,omitempty"`     // transfer/pass_transfer
	OwnerAddress    *string       `json:"owner_address,omitempty"`  // stake
	Unstaked        bool          `json:"unstaked,omitempty"`       // claim
	AmountEarned    string        `json:"amount_earned,omitempty"`  // claim, ore units
	Amount          string        `json:"amount,omitempty"`         // mint_committed / mint_revealed
	TxCaller        string        `json:"tx_caller"`                // transaction originator
	TxHash          string        `json:"tx_hash"`
	BlockNumber     uint64        `json:"block_number"`
	Timestamp       time.Time     `json:"timestamp"`
	TxIndex         uint64        `json:"tx_index"` // transaction index in the block (for ordering)
}

// TokenKey derives the composite token key for the event
func (e *GameEvent) TokenKey() TokenKey {
	return NewTokenKey(e.ContractAddress, e.TokenNumber)
}

// Valid checks the per-type field requirements of the event
func (e *GameEvent) Valid() bool {
	if !common.IsHexAddress(e.ContractAddress) {
		return false
	}

	switch e.EventType {
	case EventTypeTransfer, EventTypePassTransfer:
		if e.FromAddress == nil || e.ToAddress == nil {
			return false
		}
		if !common.IsHexAddress(*e.FromAddress) || !common.IsHexAddress(*e.ToAddress) {
			return false
		}
		if !common.IsHexAddress(e.TxCaller) {
			return false
		}
		return validTokenNumber(e.TokenNumber)
	case EventTypeMint:
		if !IsValidSpecies(e.Species) {
			return false
		}
		if !common.IsHexAddress(e.TxCaller) {
			return false
		}
		return validTokenNumber(e.TokenNumber)
	case EventTypeTheft:
		return validTokenNumber(e.TokenNumber) && common.IsHexAddress(e.TxCaller)
	case EventTypeStake:
		if e.OwnerAddress == nil || !common.IsHexAddress(*e.OwnerAddress) {
			return false
		}
		return IsValidSpecies(e.Species) && validTokenNumber(e.TokenNumber)
	case EventTypeClaim:
		if !IsValidSpecies(e.Species) || !validTokenNumber(e.TokenNumber) {
			return false
		}
		return validAmount(e.AmountEarned)
	case EventTypeBurn:
		return validTokenNumber(e.TokenNumber)
	case EventTypeMintCommitted, EventTypeMintRevealed:
		return validAmount(e.Amount)
	default:
		return false
	}
}

// NormalizeAddress normalizes an address to lowercase hex, the canonical
// Player key format
func NormalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// IsZeroAddress checks if an address is the zero address
func IsZeroAddress(address string) bool {
	return NormalizeAddress(address) == ZeroAddress
}

// AddAmounts adds two non-negative decimal amounts (numeric(78,0) strings).
// Empty strings count as zero. Amounts are chain integers and can exceed
// uint64, hence big.Int.
func AddAmounts(a, b string) (string, error) {
	x, err := parseAmount(a)
	if err != nil {
		return "", err
	}
	y, err := parseAmount(b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(x, y).String(), nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	return v, nil
}

var tokenNumberPattern = regexp.MustCompile(`^[0-9]+$`)

// validTokenNumber checks if a token number is a non-empty decimal string
func validTokenNumber(tokenNumber string) bool {
	return tokenNumberPattern.MatchString(tokenNumber)
}

// validAmount checks if an amount is a non-empty decimal string
func validAmount(amount string) bool {
	_, err := parseAmount(amount)
	return err == nil && amount != ""
}
