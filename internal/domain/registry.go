package domain

// ContractKind identifies what role a watched contract plays in the game
type ContractKind string

const (
	ContractKindGame        ContractKind = "game"         // the ERC-721 Marine/Alien contract
	ContractKindStakingPool ContractKind = "staking_pool" // the staking pool (ore mine)
	ContractKindFounderPass ContractKind = "founder_pass" // the ERC-1155 founder pass
	ContractKindMintControl ContractKind = "mint_control" // commit/reveal mint controller
)

// WatchedContract describes a contract the indexer follows
type WatchedContract struct {
	Address string
	Kind    ContractKind
	Name    string
}

// ContractRegistry resolves contract addresses to their game roles. All
// lookups are against normalized lowercase addresses.
type ContractRegistry struct {
	contracts map[string]WatchedContract
}

// NewContractRegistry builds a registry from the watched contract list
func NewContractRegistry(contracts []WatchedContract) *ContractRegistry {
	m := make(map[string]WatchedContract, len(contracts))
	for _, c := range contracts {
		c.Address = NormalizeAddress(c.Address)
		m[c.Address] = c
	}
	return &ContractRegistry{contracts: m}
}

// Lookup returns the watched contract for an address, if any
func (r *ContractRegistry) Lookup(address string) (WatchedContract, bool) {
	c, ok := r.contracts[NormalizeAddress(address)]
	return c, ok
}

// IsStakingPool checks whether an address is a registered staking pool
func (r *ContractRegistry) IsStakingPool(address string) bool {
	c, ok := r.Lookup(address)
	return ok && c.Kind == ContractKindStakingPool
}

// IsWatched checks whether an address belongs to a watched contract
func (r *ContractRegistry) IsWatched(address string) bool {
	_, ok := r.Lookup(address)
	return ok
}

// GameContract returns the registered game token contract, if any. Pool
// events reference game tokens, so their composite keys are built against
// this address.
func (r *ContractRegistry) GameContract() (WatchedContract, bool) {
	for _, c := range r.contracts {
		if c.Kind == ContractKindGame {
			return c, true
		}
	}
	return WatchedContract{}, false
}

// Addresses returns all watched contract addresses
func (r *ContractRegistry) Addresses() []string {
	addresses := make([]string, 0, len(r.contracts))
	for a := range r.contracts {
		addresses = append(addresses, a)
	}
	return addresses
}

// SpeciesSupply returns the total supply used as the rarity denominator
// for a species. FounderPass tokens carry no traits, so there is no
// denominator for them.
func SpeciesSupply(species Species) int64 {
	switch species {
	case SpeciesMarine:
		return DefaultMarineSupply
	case SpeciesAlien:
		return DefaultAlienSupply
	default:
		return 0
	}
}
