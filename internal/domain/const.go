package domain

const (
	// ZeroAddress is the Ethereum zero address, the mint source and burn sink
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// GameID is the well-known key of the singleton Game record
	GameID = "MnA"
)

// Default total supply per species, used as the rarity denominator
const (
	DefaultMarineSupply int64 = 6250
	DefaultAlienSupply  int64 = 719
)
