package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/block"
	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
)

// Event signatures for the watched contracts.
var (
	// ERC-721 Transfer(address indexed from, address indexed to, uint256 indexed tokenId).
	// Shared with ERC-20 which only carries 3 topics; those are skipped.
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	marineMintedEventSignature = crypto.Keccak256Hash([]byte("MarineMinted(uint256)"))
	alienMintedEventSignature  = crypto.Keccak256Hash([]byte("AlienMinted(uint256)"))
	marineStolenEventSignature = crypto.Keccak256Hash([]byte("MarineStolen(uint256)"))
	alienStolenEventSignature  = crypto.Keccak256Hash([]byte("AlienStolen(uint256)"))
	marineBurnedEventSignature = crypto.Keccak256Hash([]byte("MarineBurned(uint256)"))
	alienBurnedEventSignature  = crypto.Keccak256Hash([]byte("AlienBurned(uint256)"))

	// staking pool: TokenStaked(address owner, uint256 tokenId, bool isMarine)
	tokenStakedEventSignature = crypto.Keccak256Hash([]byte("TokenStaked(address,uint256,bool)"))

	// staking pool: <Species>Claimed(uint256 tokenId, uint256 earned, bool unstaked)
	marineClaimedEventSignature = crypto.Keccak256Hash([]byte("MarineClaimed(uint256,uint256,bool)"))
	alienClaimedEventSignature  = crypto.Keccak256Hash([]byte("AlienClaimed(uint256,uint256,bool)"))

	// mint controller: MintCommitted(address indexed owner, uint256 amount)
	mintCommittedEventSignature = crypto.Keccak256Hash([]byte("MintCommitted(address,uint256)"))
	mintRevealedEventSignature  = crypto.Keccak256Hash([]byte("MintRevealed(address,uint256)"))
)

// watchedEventSignatures returns the topic filter for everything the
// emitter follows
func watchedEventSignatures() []common.Hash {
	return []common.Hash{
		transferEventSignature,
		marineMintedEventSignature,
		alienMintedEventSignature,
		marineStolenEventSignature,
		alienStolenEventSignature,
		marineBurnedEventSignature,
		alienBurnedEventSignature,
		tokenStakedEventSignature,
		marineClaimedEventSignature,
		alienClaimedEventSignature,
		mintCommittedEventSignature,
		mintRevealedEventSignature,
	}
}

// GameClient decodes on-chain logs from the game's contracts into
// normalized game events
type GameClient interface {
	// ParseEventLog decodes one log. A nil event with nil error means the
	// log is not relevant (unwatched contract, ERC-20 transfer).
	ParseEventLog(ctx context.Context, vLog types.Log) (*domain.GameEvent, error)

	// SubscribeFilterLogs subscribes to filter logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs retrieves historical logs matching the query
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// HeaderByNumber returns a header by number (nil for latest)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// ERC721TokenURI fetches the tokenURI from an ERC721 contract
	ERC721TokenURI(ctx context.Context, contractAddress, tokenNumber string) (string, error)

	// Close closes the connection
	Close()
}

type gameClient struct {
	client     adapter.EthClient
	registry   *domain.ContractRegistry
	clock      adapter.Clock
	timestamps block.TimestampProvider
}

// headerFetcher fetches block timestamps through the raw Ethereum client
type headerFetcher struct {
	client adapter.EthClient
	clock  adapter.Clock
}

func (f *headerFetcher) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := f.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block header: %w", err)
	}
	return f.clock.Unix(int64(header.Time), 0), nil //nolint:gosec,G115 // header.Time is a uint64 from geth which is safe to cast
}

// NewClient creates a game event decoder over a raw Ethereum client
func NewClient(client adapter.EthClient, registry *domain.ContractRegistry, clock adapter.Clock) GameClient {
	return &gameClient{
		client:     client,
		registry:   registry,
		clock:      clock,
		timestamps: block.NewTimestampProvider(&headerFetcher{client: client, clock: clock}),
	}
}

func (c *gameClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

func (c *gameClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return c.client.FilterLogs(ctx, query)
}

func (c *gameClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.client.HeaderByNumber(ctx, number)
}

// ParseEventLog decodes an Ethereum log into a normalized game event
func (c *gameClient) ParseEventLog(ctx context.Context, vLog types.Log) (*domain.GameEvent, error) {
	watched, ok := c.registry.Lookup(vLog.Address.Hex())
	if !ok {
		return nil, nil
	}
	if len(vLog.Topics) == 0 {
		return nil, nil
	}

	timestamp, err := c.timestamps.GetBlockTimestamp(ctx, vLog.BlockNumber)
	if err != nil {
		return nil, err
	}

	event := &domain.GameEvent{
		ContractAddress: domain.NormalizeAddress(vLog.Address.Hex()),
		TxHash:          vLog.TxHash.Hex(),
		BlockNumber:     vLog.BlockNumber,
		Timestamp:       timestamp,
		TxIndex:         uint64(vLog.TxIndex),
	}

	switch vLog.Topics[0] {
	case transferEventSignature:
		if len(vLog.Topics) == 3 {
			// ERC-20 transfer on a watched address, not a token movement
			logger.DebugCtx(ctx, "skipping ERC-20 transfer",
				zap.String("contract", event.ContractAddress),
				zap.String("txHash", event.TxHash))
			return nil, nil
		}
		if len(vLog.Topics) != 4 {
			return nil, fmt.Errorf("invalid Transfer event: expected 4 topics, got %d", len(vLog.Topics))
		}

		from := domain.NormalizeAddress(common.BytesToAddress(vLog.Topics[1].Bytes()).Hex())
		to := domain.NormalizeAddress(common.BytesToAddress(vLog.Topics[2].Bytes()).Hex())
		event.FromAddress = &from
		event.ToAddress = &to
		event.TokenNumber = new(big.Int).SetBytes(vLog.Topics[3].Bytes()).String()

		switch watched.Kind {
		case domain.ContractKindGame:
			event.EventType = domain.EventTypeTransfer
		case domain.ContractKindFounderPass:
			event.EventType = domain.EventTypePassTransfer
		default:
			return nil, nil
		}

		if err := c.fillTxCaller(ctx, event, vLog); err != nil {
			return nil, err
		}

	case marineMintedEventSignature, alienMintedEventSignature:
		if watched.Kind != domain.ContractKindGame {
			return nil, nil
		}
		event.EventType = domain.EventTypeMint
		event.Species = domain.SpeciesFromFlag(vLog.Topics[0] == marineMintedEventSignature)
		event.TokenNumber, err = singleUintArg(vLog)
		if err != nil {
			return nil, err
		}
		if err := c.fillTxCaller(ctx, event, vLog); err != nil {
			return nil, err
		}

	case marineStolenEventSignature, alienStolenEventSignature:
		if watched.Kind != domain.ContractKindGame {
			return nil, nil
		}
		event.EventType = domain.EventTypeTheft
		event.Species = domain.SpeciesFromFlag(vLog.Topics[0] == marineStolenEventSignature)
		event.TokenNumber, err = singleUintArg(vLog)
		if err != nil {
			return nil, err
		}
		if err := c.fillTxCaller(ctx, event, vLog); err != nil {
			return nil, err
		}

	case marineBurnedEventSignature, alienBurnedEventSignature:
		if watched.Kind != domain.ContractKindGame {
			return nil, nil
		}
		event.EventType = domain.EventTypeBurn
		event.Species = domain.SpeciesFromFlag(vLog.Topics[0] == marineBurnedEventSignature)
		event.TokenNumber, err = singleUintArg(vLog)
		if err != nil {
			return nil, err
		}

	case tokenStakedEventSignature:
		if watched.Kind != domain.ContractKindStakingPool {
			return nil, nil
		}
		if len(vLog.Data) < 96 {
			return nil, fmt.Errorf("invalid TokenStaked event: insufficient data")
		}
		owner := domain.NormalizeAddress(common.BytesToAddress(vLog.Data[0:32]).Hex())
		event.EventType = domain.EventTypeStake
		event.OwnerAddress = &owner
		event.TxCaller = owner
		event.TokenNumber = new(big.Int).SetBytes(vLog.Data[32:64]).String()
		event.Species = domain.SpeciesFromFlag(new(big.Int).SetBytes(vLog.Data[64:96]).Sign() != 0)
		// pool events reference game tokens; key them against the game
		// contract so they land on the same token rows
		if err := c.rekeyToGameContract(event); err != nil {
			return nil, err
		}

	case marineClaimedEventSignature, alienClaimedEventSignature:
		if watched.Kind != domain.ContractKindStakingPool {
			return nil, nil
		}
		if len(vLog.Data) < 96 {
			return nil, fmt.Errorf("invalid Claimed event: insufficient data")
		}
		event.EventType = domain.EventTypeClaim
		event.Species = domain.SpeciesFromFlag(vLog.Topics[0] == marineClaimedEventSignature)
		event.TokenNumber = new(big.Int).SetBytes(vLog.Data[0:32]).String()
		event.AmountEarned = new(big.Int).SetBytes(vLog.Data[32:64]).String()
		event.Unstaked = new(big.Int).SetBytes(vLog.Data[64:96]).Sign() != 0
		if err := c.rekeyToGameContract(event); err != nil {
			return nil, err
		}

	case mintCommittedEventSignature, mintRevealedEventSignature:
		if watched.Kind != domain.ContractKindMintControl {
			return nil, nil
		}
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("invalid mint progress event: insufficient data")
		}
		if vLog.Topics[0] == mintCommittedEventSignature {
			event.EventType = domain.EventTypeMintCommitted
		} else {
			event.EventType = domain.EventTypeMintRevealed
		}
		// the owner lands in topic[1]; only the amount matters here
		event.Amount = new(big.Int).SetBytes(vLog.Data[len(vLog.Data)-32:]).String()

	default:
		return nil, fmt.Errorf("unknown event signature: %s", vLog.Topics[0].Hex())
	}

	return event, nil
}

// singleUintArg extracts the sole uint256 argument of an event, whether
// the contract indexed it or left it in the data segment
func singleUintArg(vLog types.Log) (string, error) {
	if len(vLog.Topics) >= 2 {
		return new(big.Int).SetBytes(vLog.Topics[1].Bytes()).String(), nil
	}
	if len(vLog.Data) >= 32 {
		return new(big.Int).SetBytes(vLog.Data[0:32]).String(), nil
	}
	return "", fmt.Errorf("event carries no token id: %s", vLog.Topics[0].Hex())
}

// fillTxCaller resolves the transaction originator, which the classifier
// needs to tell mints apart from thefts
func (c *gameClient) fillTxCaller(ctx context.Context, event *domain.GameEvent, vLog types.Log) error {
	tx, err := c.client.TransactionInBlock(ctx, vLog.BlockHash, vLog.TxIndex)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	sender, err := c.client.TransactionSender(ctx, tx, vLog.BlockHash, vLog.TxIndex)
	if err != nil {
		return fmt.Errorf("failed to get transaction sender: %w", err)
	}
	event.TxCaller = domain.NormalizeAddress(sender.Hex())
	return nil
}

func (c *gameClient) rekeyToGameContract(event *domain.GameEvent) error {
	game, ok := c.registry.GameContract()
	if !ok {
		return fmt.Errorf("no game contract registered")
	}
	event.ContractAddress = game.Address
	return nil
}

// ERC721TokenURI fetches the tokenURI from an ERC721 contract
func (c *gameClient) ERC721TokenURI(ctx context.Context, contractAddress, tokenNumber string) (string, error) {
	tokenURIABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	tokenID, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return "", fmt.Errorf("invalid token number: %s", tokenNumber)
	}

	data, err := tokenURIABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	contractAddr := common.HexToAddress(contractAddress)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	var uri string
	if err := tokenURIABI.UnpackIntoInterface(&uri, "tokenURI", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return uri, nil
}

// Close closes the connection
func (c *gameClient) Close() {
	c.client.Close()
}
