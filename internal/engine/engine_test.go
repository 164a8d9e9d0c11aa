package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/store"
	"github.com/mna-game/mna-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

const (
	gameContract = "0x1111111111111111111111111111111111111111"
	poolContract = "0x2222222222222222222222222222222222222222"
	passContract = "0x3333333333333333333333333333333333333333"
	mintControl  = "0x4444444444444444444444444444444444444444"

	playerA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	playerB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	playerC = "0xcccccccccccccccccccccccccccccccccccccccc"
)

var eventTime = time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC)

func testRegistry() *domain.ContractRegistry {
	return domain.NewContractRegistry([]domain.WatchedContract{
		{Address: gameContract, Kind: domain.ContractKindGame, Name: "MnA"},
		{Address: poolContract, Kind: domain.ContractKindStakingPool, Name: "OreMine"},
		{Address: passContract, Kind: domain.ContractKindFounderPass, Name: "FounderPass"},
		{Address: mintControl, Kind: domain.ContractKindMintControl, Name: "MintControl"},
	})
}

func newTestEngine() (*Engine, store.Store) {
	s := store.NewMemoryStore()
	return New(s, testRegistry()), s
}

func mintEvent(tokenNumber string, species domain.Species, caller string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeMint,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		Species:         species,
		TxCaller:        caller,
		TxHash:          "0xmint" + tokenNumber,
		BlockNumber:     100,
		Timestamp:       eventTime,
	}
}

func transferEvent(tokenNumber, from, to, caller string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeTransfer,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		FromAddress:     &from,
		ToAddress:       &to,
		TxCaller:        caller,
		TxHash:          "0xtransfer" + tokenNumber,
		BlockNumber:     101,
		Timestamp:       eventTime,
	}
}

func theftEvent(tokenNumber, caller string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeTheft,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		TxCaller:        caller,
		TxHash:          "0xtheft" + tokenNumber,
		BlockNumber:     100,
		Timestamp:       eventTime,
	}
}

func stakeEvent(tokenNumber string, species domain.Species, owner string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeStake,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		Species:         species,
		OwnerAddress:    &owner,
		TxCaller:        owner,
		TxHash:          "0xstake" + tokenNumber,
		BlockNumber:     102,
		Timestamp:       eventTime,
	}
}

func claimEvent(tokenNumber string, species domain.Species, amount string, unstaked bool) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeClaim,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		Species:         species,
		Unstaked:        unstaked,
		AmountEarned:    amount,
		TxCaller:        playerA,
		TxHash:          "0xclaim" + tokenNumber,
		BlockNumber:     103,
		Timestamp:       eventTime,
	}
}

func burnEvent(tokenNumber string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypeBurn,
		ContractAddress: gameContract,
		TokenNumber:     tokenNumber,
		TxCaller:        playerA,
		TxHash:          "0xburn" + tokenNumber,
		BlockNumber:     104,
		Timestamp:       eventTime,
	}
}

func passTransferEvent(tokenNumber, from, to string) *domain.GameEvent {
	return &domain.GameEvent{
		EventType:       domain.EventTypePassTransfer,
		ContractAddress: passContract,
		TokenNumber:     tokenNumber,
		FromAddress:     &from,
		ToAddress:       &to,
		TxCaller:        to,
		TxHash:          "0xpass" + tokenNumber,
		BlockNumber:     105,
		Timestamp:       eventTime,
	}
}

func applyAll(t *testing.T, e *Engine, events ...*domain.GameEvent) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, e.Apply(context.Background(), ev))
	}
}

func mustGame(t *testing.T, s store.Store) *schema.Game {
	t.Helper()
	game, err := s.GetGame(context.Background(), domain.GameID)
	require.NoError(t, err)
	require.NotNil(t, game)
	return game
}

func mustPlayer(t *testing.T, s store.Store, address string) *schema.Player {
	t.Helper()
	player, err := s.GetPlayer(context.Background(), address)
	require.NoError(t, err)
	require.NotNil(t, player)
	return player
}

func mustToken(t *testing.T, s store.Store, tokenNumber string) *schema.Token {
	t.Helper()
	token, err := s.GetToken(context.Background(), domain.NewTokenKey(gameContract, tokenNumber).String())
	require.NoError(t, err)
	require.NotNil(t, token)
	return token
}

// assertCoherent checks that species and total counters never drift apart
func assertCoherent(t *testing.T, p *schema.Player) {
	t.Helper()
	assert.Equal(t, p.MarinesOwned+p.AliensOwned+p.FounderPassesOwned, p.TokensOwned)
	assert.Equal(t, p.MarinesMinted+p.AliensMinted+p.FounderPassesMinted, p.TokensMinted)
	assert.Equal(t, p.MarinesStaked+p.AliensStaked, p.TokensStaked)
	assert.Equal(t, p.MarinesStolen+p.AliensStolen, p.TokensStolen)
	assert.Equal(t, p.MarinesLost+p.AliensLost, p.TokensLost)
	assert.GreaterOrEqual(t, p.TokensOwned, int64(0))
}

func TestMintToCaller(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesMinted)
	assert.Equal(t, int64(0), game.AliensMinted)
	assert.Equal(t, int64(1), game.NumPlayers)

	player := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(1), player.MarinesMinted)
	assert.Equal(t, int64(1), player.MarinesOwned)
	assert.Equal(t, int64(1), player.TokensOwned)
	assertCoherent(t, player)

	token := mustToken(t, s, "1")
	assert.Equal(t, playerA, token.OwnerAddress)
	assert.Equal(t, domain.SpeciesMarine, token.Species)
	assert.False(t, token.IsStaked)
	assert.Equal(t, "0", token.OresClaimed)
	assert.Equal(t, uint64(100), token.MintBlock)
}

func TestPlayerToPlayerTransfer(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		transferEvent("1", playerA, playerB, playerA),
	)

	a := mustPlayer(t, s, playerA)
	b := mustPlayer(t, s, playerB)
	assert.Equal(t, int64(0), a.MarinesOwned)
	assert.Equal(t, int64(0), a.TokensOwned)
	assert.Equal(t, int64(1), b.MarinesOwned)
	assert.Equal(t, int64(1), b.TokensOwned)
	assertCoherent(t, a)
	assertCoherent(t, b)

	token := mustToken(t, s, "1")
	assert.Equal(t, playerB, token.OwnerAddress)

	game := mustGame(t, s)
	assert.Equal(t, int64(2), game.NumPlayers)
}

func TestTransferForUnknownTokenIsFatal(t *testing.T) {
	e, _ := newTestEngine()

	err := e.Apply(context.Background(), transferEvent("99", domain.ZeroAddress, playerA, playerA))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.True(t, domain.IsFatal(err))
}

func TestInvalidEventRejected(t *testing.T) {
	e, _ := newTestEngine()

	err := e.Apply(context.Background(), &domain.GameEvent{
		EventType:       domain.EventTypeMint,
		ContractAddress: gameContract,
		TokenNumber:     "not-a-number",
		Species:         domain.SpeciesMarine,
		TxCaller:        playerA,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestStakeViaTransferAndPoolEvent(t *testing.T) {
	e, s := newTestEngine()

	// the custody transfer and the pool's Staked event describe the same
	// deposit; the staked counters must move exactly once
	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		transferEvent("1", playerA, poolContract, playerA),
		stakeEvent("1", domain.SpeciesMarine, playerA),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesStaked)

	player := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(1), player.MarinesStaked)
	assert.Equal(t, int64(1), player.TokensStaked)
	assert.Equal(t, int64(1), player.MarinesOwned)
	assertCoherent(t, player)

	token := mustToken(t, s, "1")
	assert.True(t, token.IsStaked)
	require.NotNil(t, token.StakedAt)
	assert.Equal(t, eventTime, token.StakedAt.UTC())
	assert.Equal(t, playerA, token.OwnerAddress)
}

func TestStakeForUnknownPlayerIsFatal(t *testing.T) {
	e, _ := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
	)

	err := e.Apply(context.Background(), stakeEvent("1", domain.SpeciesMarine, playerC))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	assert.True(t, domain.IsFatal(err))
}

func TestClaimWithUnstake(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		transferEvent("1", playerA, poolContract, playerA),
		stakeEvent("1", domain.SpeciesMarine, playerA),
		claimEvent("1", domain.SpeciesMarine, "50", true),
		// the pool returns the token to its owner; custody-only, no-op
		transferEvent("1", poolContract, playerA, playerA),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(0), game.MarinesStaked)
	assert.Equal(t, "50", game.OresClaimed)

	player := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(0), player.MarinesStaked)
	assert.Equal(t, int64(0), player.TokensStaked)
	assert.Equal(t, "50", player.OresClaimed)
	assert.Equal(t, int64(1), player.MarinesOwned)
	assertCoherent(t, player)

	token := mustToken(t, s, "1")
	assert.False(t, token.IsStaked)
	assert.Nil(t, token.StakedAt)
	assert.Equal(t, "50", token.OresClaimed)
	assert.Equal(t, playerA, token.OwnerAddress)
}

func TestClaimWithoutUnstakeKeepsStakingState(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesAlien, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		transferEvent("1", playerA, poolContract, playerA),
		claimEvent("1", domain.SpeciesAlien, "30", false),
		claimEvent("1", domain.SpeciesAlien, "20", false),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.AliensStaked)
	assert.Equal(t, "50", game.OresClaimed)

	token := mustToken(t, s, "1")
	assert.True(t, token.IsStaked)
	assert.Equal(t, "50", token.OresClaimed)
}

func TestStakeUnstakeSymmetry(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
	)

	before := mustGame(t, s)
	beforePlayer := mustPlayer(t, s, playerA)

	applyAll(t, e,
		transferEvent("1", playerA, poolContract, playerA),
		stakeEvent("1", domain.SpeciesMarine, playerA),
		claimEvent("1", domain.SpeciesMarine, "0", true),
		transferEvent("1", poolContract, playerA, playerA),
	)

	after := mustGame(t, s)
	afterPlayer := mustPlayer(t, s, playerA)
	assert.Equal(t, before.MarinesStaked, after.MarinesStaked)
	assert.Equal(t, beforePlayer.MarinesStaked, afterPlayer.MarinesStaked)
	assert.Equal(t, beforePlayer.TokensStaked, afterPlayer.TokensStaked)

	token := mustToken(t, s, "1")
	assert.False(t, token.IsStaked)
	assert.Nil(t, token.StakedAt)
}

func TestMintAndStake(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, poolContract, playerA),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesMinted)
	assert.Equal(t, int64(1), game.MarinesStaked)

	player := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(1), player.MarinesOwned)
	assert.Equal(t, int64(1), player.MarinesStaked)
	assertCoherent(t, player)

	token := mustToken(t, s, "1")
	assert.True(t, token.IsStaked)
	assert.Equal(t, playerA, token.OwnerAddress)
}

func TestTheftRoundTrip(t *testing.T) {
	e, s := newTestEngine()

	// playerA mints but the game steals the token; the delivering
	// transfer reveals playerB as the thief
	applyAll(t, e,
		mintEvent("1", domain.SpeciesAlien, playerA),
		theftEvent("1", playerA),
	)

	stolen, err := s.GetStolenToken(context.Background(), domain.NewTokenKey(gameContract, "1").String())
	require.NoError(t, err)
	require.NotNil(t, stolen)
	assert.Equal(t, playerA, stolen.VictimAddress)
	assert.Empty(t, stolen.ThiefAddress)
	assert.Nil(t, stolen.ResolvedAt)
	assert.Equal(t, domain.SpeciesAlien, stolen.Species)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.AliensStolen)

	applyAll(t, e, transferEvent("1", domain.ZeroAddress, playerB, playerA))

	stolen, err = s.GetStolenToken(context.Background(), domain.NewTokenKey(gameContract, "1").String())
	require.NoError(t, err)
	require.NotNil(t, stolen)
	assert.Equal(t, playerB, stolen.ThiefAddress)
	require.NotNil(t, stolen.ResolvedAt)

	victim := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(1), victim.AliensLost)
	assert.Equal(t, int64(1), victim.TokensLost)
	assert.Equal(t, int64(0), victim.AliensOwned)
	assertCoherent(t, victim)

	thief := mustPlayer(t, s, playerB)
	assert.Equal(t, int64(1), thief.AliensStolen)
	assert.Equal(t, int64(1), thief.TokensStolen)
	assert.Equal(t, int64(1), thief.AliensOwned)
	assertCoherent(t, thief)

	token := mustToken(t, s, "1")
	assert.Equal(t, playerB, token.OwnerAddress)

	// the game-wide stolen counter moved once, at record creation
	game = mustGame(t, s)
	assert.Equal(t, int64(1), game.AliensStolen)
}

func TestTheftInferredFromTransferAlone(t *testing.T) {
	e, s := newTestEngine()

	// no theft announcement: a mint delivered to a non-caller address
	// opens the record; a later transfer resolves the thief
	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerB, playerA),
	)

	key := domain.NewTokenKey(gameContract, "1").String()
	stolen, err := s.GetStolenToken(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, stolen)
	assert.Equal(t, playerA, stolen.VictimAddress)
	assert.Empty(t, stolen.ThiefAddress)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesStolen)

	applyAll(t, e, transferEvent("1", domain.ZeroAddress, playerC, playerA))

	stolen, err = s.GetStolenToken(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, stolen)
	assert.Equal(t, playerC, stolen.ThiefAddress)

	thief := mustPlayer(t, s, playerC)
	assert.Equal(t, int64(1), thief.MarinesStolen)
	assert.Equal(t, int64(1), thief.MarinesOwned)
	assertCoherent(t, thief)
}

func TestTheftAnnouncedForUnknownTokenIsFatal(t *testing.T) {
	e, _ := newTestEngine()

	err := e.Apply(context.Background(), theftEvent("99", playerA))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTheftAnnouncedTwiceCountsOnce(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		theftEvent("1", playerA),
		theftEvent("1", playerA),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesStolen)
}

func TestBurn(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		burnEvent("1"),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesBurned)

	player := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(0), player.MarinesOwned)
	assert.Equal(t, int64(0), player.TokensOwned)
	assertCoherent(t, player)

	token := mustToken(t, s, "1")
	assert.True(t, token.Burned)
	assert.Equal(t, domain.ZeroAddress, token.OwnerAddress)
}

func TestBurnMissesAreSoft(t *testing.T) {
	e, _ := newTestEngine()

	// unknown token: warn and skip, processing continues
	require.NoError(t, e.Apply(context.Background(), burnEvent("99")))
}

func TestBurnIsIdempotent(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		burnEvent("1"),
		burnEvent("1"),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.MarinesBurned)
}

func TestMintProgress(t *testing.T) {
	e, s := newTestEngine()

	progress := func(eventType domain.GameEventType, amount string) *domain.GameEvent {
		return &domain.GameEvent{
			EventType:       eventType,
			ContractAddress: mintControl,
			Amount:          amount,
			TxCaller:        playerA,
			TxHash:          "0xcommit",
			BlockNumber:     100,
			Timestamp:       eventTime,
		}
	}

	applyAll(t, e,
		progress(domain.EventTypeMintCommitted, "5"),
		progress(domain.EventTypeMintCommitted, "3"),
		progress(domain.EventTypeMintRevealed, "5"),
	)

	game := mustGame(t, s)
	assert.Equal(t, "8", game.MintsCommitted)
	assert.Equal(t, "5", game.MintsRevealed)
}

func TestPassTransferLifecycle(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		passTransferEvent("7", domain.ZeroAddress, playerA),
		passTransferEvent("7", playerA, playerB),
	)

	game := mustGame(t, s)
	assert.Equal(t, int64(1), game.FounderPassesMinted)
	assert.Equal(t, int64(2), game.NumPlayers)

	a := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(1), a.FounderPassesMinted)
	assert.Equal(t, int64(0), a.FounderPassesOwned)
	assertCoherent(t, a)

	b := mustPlayer(t, s, playerB)
	assert.Equal(t, int64(1), b.FounderPassesOwned)
	assert.Equal(t, int64(1), b.TokensOwned)
	assertCoherent(t, b)

	token, err := s.GetToken(context.Background(), domain.NewTokenKey(passContract, "7").String())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, domain.SpeciesPass, token.Species)
	assert.Equal(t, playerB, token.OwnerAddress)
}

func TestPassBurn(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		passTransferEvent("7", domain.ZeroAddress, playerA),
		passTransferEvent("7", playerA, domain.ZeroAddress),
	)

	a := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(0), a.FounderPassesOwned)
	assertCoherent(t, a)

	token, err := s.GetToken(context.Background(), domain.NewTokenKey(passContract, "7").String())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.True(t, token.Burned)
}

func TestPassMintOfHeldIDIncreasesBalance(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		passTransferEvent("7", domain.ZeroAddress, playerA),
		passTransferEvent("7", domain.ZeroAddress, playerA),
	)

	token, err := s.GetToken(context.Background(), domain.NewTokenKey(passContract, "7").String())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, int64(2), token.Balance)

	a := mustPlayer(t, s, playerA)
	assert.Equal(t, int64(2), a.FounderPassesMinted)
	assert.Equal(t, int64(1), a.FounderPassesOwned)
	assertCoherent(t, a)
}

func TestApplyMetadata(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
	)

	key := domain.NewTokenKey(gameContract, "1").String()
	attrs := []TokenAttribute{
		{Name: "M_Eyes", Value: "Laser"},
		{Name: "M_Weapon", Value: "Rifle"},
		{Name: "Rank Score", Value: "42"},
		{Name: "Generation", Value: "Gen 0"},
		{Name: "Type", Value: "Marine"},
		{Name: "Mystery", Value: "ignored"},
	}
	raw := []byte(`{"name":"Marine #1"}`)

	require.NoError(t, e.ApplyMetadata(context.Background(), key, attrs, raw))

	token := mustToken(t, s, "1")
	assert.Equal(t, "Laser", token.Eyes)
	assert.Equal(t, "Rifle", token.WeaponMouth)
	assert.Equal(t, "Gen 0", token.Generation)
	require.NotNil(t, token.Rank)
	assert.Equal(t, int64(42), *token.Rank)
	assert.JSONEq(t, `{"name":"Marine #1"}`, string(token.RawMetadata))

	trait, err := s.GetTrait(context.Background(), schema.TraitID(domain.SpeciesMarine, "eyes", "Laser"))
	require.NoError(t, err)
	require.NotNil(t, trait)
	assert.Equal(t, int64(1), trait.Count)
	assert.InDelta(t, 1.0/float64(domain.DefaultMarineSupply), trait.Rarity, 1e-12)

	// re-resolving must not inflate trait counts
	require.NoError(t, e.ApplyMetadata(context.Background(), key, attrs, raw))
	trait, err = s.GetTrait(context.Background(), schema.TraitID(domain.SpeciesMarine, "eyes", "Laser"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), trait.Count)
}

func TestApplyMetadataForUnknownTokenIsFatal(t *testing.T) {
	e, _ := newTestEngine()

	err := e.ApplyMetadata(context.Background(), domain.NewTokenKey(gameContract, "99").String(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

// TestGameStakedMatchesTokens checks the game-wide staked counters
// against the per-token staked flags after a mixed sequence.
func TestGameStakedMatchesTokens(t *testing.T) {
	e, s := newTestEngine()

	applyAll(t, e,
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		mintEvent("2", domain.SpeciesMarine, playerA),
		transferEvent("2", domain.ZeroAddress, playerA, playerA),
		mintEvent("3", domain.SpeciesAlien, playerB),
		transferEvent("3", domain.ZeroAddress, playerB, playerB),
		transferEvent("1", playerA, poolContract, playerA),
		stakeEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("3", playerB, poolContract, playerB),
		stakeEvent("3", domain.SpeciesAlien, playerB),
		claimEvent("3", domain.SpeciesAlien, "10", true),
		transferEvent("3", poolContract, playerB, playerB),
	)

	var marinesStaked, aliensStaked int64
	for _, n := range []string{"1", "2", "3"} {
		token := mustToken(t, s, n)
		if token.IsStaked {
			switch token.Species {
			case domain.SpeciesMarine:
				marinesStaked++
			case domain.SpeciesAlien:
				aliensStaked++
			}
		}
	}

	game := mustGame(t, s)
	assert.Equal(t, marinesStaked, game.MarinesStaked)
	assert.Equal(t, aliensStaked, game.AliensStaked)
}

// TestReplayIdempotence replays one ordered event log into two empty
// stores and expects identical aggregates.
func TestReplayIdempotence(t *testing.T) {
	log := []*domain.GameEvent{
		mintEvent("1", domain.SpeciesMarine, playerA),
		transferEvent("1", domain.ZeroAddress, playerA, playerA),
		mintEvent("2", domain.SpeciesAlien, playerA),
		theftEvent("2", playerA),
		transferEvent("2", domain.ZeroAddress, playerB, playerA),
		transferEvent("1", playerA, poolContract, playerA),
		stakeEvent("1", domain.SpeciesMarine, playerA),
		claimEvent("1", domain.SpeciesMarine, "100", true),
		transferEvent("1", poolContract, playerA, playerA),
		transferEvent("1", playerA, playerB, playerA),
		passTransferEvent("7", domain.ZeroAddress, playerB),
	}

	run := func() (schema.Game, schema.Player, schema.Player) {
		e, s := newTestEngine()
		applyAll(t, e, log...)
		game := mustGame(t, s)
		a := mustPlayer(t, s, playerA)
		b := mustPlayer(t, s, playerB)
		game.CreatedAt, game.UpdatedAt = time.Time{}, time.Time{}
		a.CreatedAt, a.UpdatedAt = time.Time{}, time.Time{}
		b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
		return *game, *a, *b
	}

	game1, a1, b1 := run()
	game2, a2, b2 := run()

	assert.Equal(t, game1, game2)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assertCoherent(t, &a1)
	assertCoherent(t, &b1)
}
