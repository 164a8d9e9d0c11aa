package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewTokenKey(t *testing.T) {
	key := NewTokenKey("0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0", "1234")
	assert.Equal(t, TokenKey("0xf0245f6251bef9447a08766b9da2b07b28ad80b0-1234"), key)

	contract, number := key.Parse()
	assert.Equal(t, "0xf0245f6251bef9447a08766b9da2b07b28ad80b0", contract)
	assert.Equal(t, "1234", number)
	assert.True(t, key.Valid())
}

func TestTokenKeyValid(t *testing.T) {
	testCases := []struct {
		name  string
		key   TokenKey
		valid bool
	}{
		{
			name:  "valid key",
			key:   TokenKey("0xf0245f6251bef9447a08766b9da2b07b28ad80b0-1"),
			valid: true,
		},
		{
			name:  "missing token number",
			key:   TokenKey("0xf0245f6251bef9447a08766b9da2b07b28ad80b0"),
			valid: false,
		},
		{
			name:  "non-address contract",
			key:   TokenKey("marine-1"),
			valid: false,
		},
		{
			name:  "non-decimal token number",
			key:   TokenKey("0xf0245f6251bef9447a08766b9da2b07b28ad80b0-abc"),
			valid: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.key.Valid())
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
		NormalizeAddress("0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0"))
	assert.True(t, IsZeroAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsZeroAddress("0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0"))
}

func TestGameEventValid(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name  string
		event GameEvent
		valid bool
	}{
		{
			name: "valid transfer",
			event: GameEvent{
				EventType:       EventTypeTransfer,
				ContractAddress: "0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
				TokenNumber:     "1",
				FromAddress:     strPtr(ZeroAddress),
				ToAddress:       strPtr("0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0"),
				TxCaller:        "0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0",
				TxHash:          "0xabc",
				BlockNumber:     100,
				Timestamp:       now,
			},
			valid: true,
		},
		{
			name: "transfer missing to address",
			event: GameEvent{
				EventType:       EventTypeTransfer,
				ContractAddress: "0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
				TokenNumber:     "1",
				FromAddress:     strPtr(ZeroAddress),
				TxCaller:        "0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0",
			},
			valid: false,
		},
		{
			name: "valid mint",
			event: GameEvent{
				EventType:       EventTypeMint,
				ContractAddress: "0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
				TokenNumber:     "42",
				Species:         SpeciesMarine,
				TxCaller:        "0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0",
			},
			valid: true,
		},
		{
			name: "mint without species",
			event: GameEvent{
				EventType:       EventTypeMint,
				ContractAddress: "0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
				TokenNumber:     "42",
				TxCaller:        "0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0",
			},
			valid: false,
		},
		{
			name: "valid stake",
			event: GameEvent{
				EventType:       EventTypeStake,
				ContractAddress: "0x5846cee85a737ea26b49d935754d49ede9b4a4f9",
				TokenNumber:     "42",
				Species:         SpeciesAlien,
				OwnerAddress:    strPtr("0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0"),
			},
			valid: true,
		},
		{
			name: "valid claim",
			event: GameEvent{
				EventType:       EventTypeClaim,
				ContractAddress: "0x5846cee85a737ea26b49d935754d49ede9b4a4f9",
				TokenNumber:     "42",
				Species:         SpeciesMarine,
				AmountEarned:    "20000000000000000000000",
				Unstaked:        true,
			},
			valid: true,
		},
		{
			name: "claim with negative amount",
			event: GameEvent{
				EventType:       EventTypeClaim,
				ContractAddress: "0x5846cee85a737ea26b49d935754d49ede9b4a4f9",
				TokenNumber:     "42",
				Species:         SpeciesMarine,
				AmountEarned:    "-1",
			},
			valid: false,
		},
		{
			name: "valid mint committed",
			event: GameEvent{
				EventType:       EventTypeMintCommitted,
				ContractAddress: "0x86e1e87dbfe0ab64cf0b8aff103be0352e482783",
				Amount:          "3",
			},
			valid: true,
		},
		{
			name: "unknown event type",
			event: GameEvent{
				EventType:       GameEventType("airdrop"),
				ContractAddress: "0xf0245f6251bef9447a08766b9da2b07b28ad80b0",
			},
			valid: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.event.Valid())
		})
	}
}

func TestAddAmounts(t *testing.T) {
	sum, err := AddAmounts("", "5")
	require.NoError(t, err)
	assert.Equal(t, "5", sum)

	sum, err = AddAmounts("20000000000000000000000", "40000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "60000000000000000000000", sum)

	_, err = AddAmounts("abc", "1")
	assert.Error(t, err)
}

func TestContractRegistry(t *testing.T) {
	registry := NewContractRegistry([]WatchedContract{
		{Address: "0xF0245F6251Bef9447A08766b9DA2B07b28aD80B0", Kind: ContractKindGame, Name: "MnA"},
		{Address: "0x5846cEE85A737Ea26b49D935754D49EdE9b4a4F9", Kind: ContractKindStakingPool, Name: "Mine"},
	})

	c, ok := registry.Lookup("0xf0245f6251bef9447a08766b9da2b07b28ad80b0")
	require.True(t, ok)
	assert.Equal(t, ContractKindGame, c.Kind)

	assert.True(t, registry.IsStakingPool("0x5846CEE85A737EA26B49D935754D49EDE9B4A4F9"))
	assert.False(t, registry.IsStakingPool("0xf0245f6251bef9447a08766b9da2b07b28ad80b0"))
	assert.False(t, registry.IsWatched("0x1290248e01d0d0e5aa6f8e2c03a736f4705fbbe0"))
	assert.Len(t, registry.Addresses(), 2)
}
