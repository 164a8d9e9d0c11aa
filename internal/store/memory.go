package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

// memoryStore is an in-memory Store used by unit tests and local runs
// without Postgres. Atomically snapshots state and restores it when fn
// fails, matching the transactional contract.
type memoryStore struct {
	mu sync.Mutex

	games     map[string]schema.Game
	players   map[string]schema.Player
	tokens    map[string]schema.Token
	stolen    map[string]schema.StolenToken
	contracts map[string]schema.Contract
	traits    map[string]schema.Trait
	cursors   map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		games:     make(map[string]schema.Game),
		players:   make(map[string]schema.Player),
		tokens:    make(map[string]schema.Token),
		stolen:    make(map[string]schema.StolenToken),
		contracts: make(map[string]schema.Contract),
		traits:    make(map[string]schema.Trait),
		cursors:   make(map[string]string),
	}
}

func (s *memoryStore) GetGame(_ context.Context, id string) (*schema.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game, ok := s.games[id]; ok {
		return &game, nil
	}
	return nil, nil
}

func (s *memoryStore) GetOrCreateGame(_ context.Context, id string) (*schema.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if game, ok := s.games[id]; ok {
		return &game, nil
	}

	game := schema.Game{
		ID:             id,
		MintsCommitted: "0",
		MintsRevealed:  "0",
		OresClaimed:    "0",
	}
	s.games[id] = game
	return &game, nil
}

func (s *memoryStore) SaveGame(_ context.Context, game *schema.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games[game.ID] = *game
	return nil
}

func (s *memoryStore) GetPlayer(_ context.Context, address string) (*schema.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, ok := s.players[address]; ok {
		return &player, nil
	}
	return nil, nil
}

func (s *memoryStore) GetOrCreatePlayer(_ context.Context, address string) (*schema.Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, ok := s.players[address]; ok {
		return &player, false, nil
	}

	player := schema.Player{
		Address:     address,
		OresClaimed: "0",
	}
	s.players[address] = player
	return &player, true, nil
}

func (s *memoryStore) SavePlayer(_ context.Context, player *schema.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players[player.Address] = *player
	return nil
}

func (s *memoryStore) CountPlayers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.players)), nil
}

func (s *memoryStore) GetToken(_ context.Context, id string) (*schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[id]; ok {
		return &token, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveToken(_ context.Context, token *schema.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.ID] = *token
	return nil
}

func (s *memoryStore) ListTokensByOwner(_ context.Context, owner string, limit, offset int) ([]*schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, token := range s.tokens {
		if token.OwnerAddress == owner && !token.Burned {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return pageTokens(s.tokens, ids, limit, offset), nil
}

func pageTokens(all map[string]schema.Token, ids []string, limit, offset int) []*schema.Token {
	if offset >= len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	tokens := make([]*schema.Token, 0, len(ids))
	for _, id := range ids {
		token := all[id]
		tokens = append(tokens, &token)
	}
	return tokens
}

func (s *memoryStore) GetStolenToken(_ context.Context, id string) (*schema.StolenToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stolen, ok := s.stolen[id]; ok {
		return &stolen, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveStolenToken(_ context.Context, stolen *schema.StolenToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stolen[stolen.ID] = *stolen
	return nil
}

func (s *memoryStore) ListStolenTokens(_ context.Context, resolved *bool, limit, offset int) ([]*schema.StolenToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]schema.StolenToken, 0, len(s.stolen))
	for _, stolen := range s.stolen {
		if resolved != nil && *resolved != (stolen.ResolvedAt != nil) {
			continue
		}
		records = append(records, stolen)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].StolenAtBlock != records[j].StolenAtBlock {
			return records[i].StolenAtBlock > records[j].StolenAtBlock
		}
		return records[i].ID < records[j].ID
	})

	if offset >= len(records) {
		return nil, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	out := make([]*schema.StolenToken, 0, len(records))
	for i := range records {
		out = append(out, &records[i])
	}
	return out, nil
}

func (s *memoryStore) GetOrCreateContract(_ context.Context, address string, kind domain.ContractKind, name string) (*schema.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contract, ok := s.contracts[address]; ok {
		return &contract, nil
	}

	contract := schema.Contract{
		Address: address,
		Kind:    kind,
		Name:    name,
	}
	s.contracts[address] = contract
	return &contract, nil
}

func (s *memoryStore) GetTrait(_ context.Context, id string) (*schema.Trait, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trait, ok := s.traits[id]; ok {
		return &trait, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveTrait(_ context.Context, trait *schema.Trait) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traits[trait.ID] = *trait
	return nil
}

func (s *memoryStore) ListTraits(_ context.Context, species domain.Species) ([]*schema.Trait, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, trait := range s.traits {
		if species == "" || trait.Species == species {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	traits := make([]*schema.Trait, 0, len(ids))
	for _, id := range ids {
		trait := s.traits[id]
		traits = append(traits, &trait)
	}
	return traits, nil
}

func (s *memoryStore) GetBlockCursor(_ context.Context, stream string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.cursors[stream]
	if !ok {
		return 0, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func (s *memoryStore) SetBlockCursor(_ context.Context, stream string, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[stream] = strconv.FormatUint(blockNumber, 10)
	return nil
}

func (s *memoryStore) Atomically(_ context.Context, fn func(Store) error) error {
	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snapshot)
		s.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	games     map[string]schema.Game
	players   map[string]schema.Player
	tokens    map[string]schema.Token
	stolen    map[string]schema.StolenToken
	contracts map[string]schema.Contract
	traits    map[string]schema.Trait
	cursors   map[string]string
}

func (s *memoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		games:     copyMap(s.games),
		players:   copyMap(s.players),
		tokens:    copyMap(s.tokens),
		stolen:    copyMap(s.stolen),
		contracts: copyMap(s.contracts),
		traits:    copyMap(s.traits),
		cursors:   copyMap(s.cursors),
	}
}

func (s *memoryStore) restore(snapshot memorySnapshot) {
	s.games = snapshot.games
	s.players = snapshot.players
	s.tokens = snapshot.tokens
	s.stolen = snapshot.stolen
	s.contracts = snapshot.contracts
	s.traits = snapshot.traits
	s.cursors = snapshot.cursors
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
