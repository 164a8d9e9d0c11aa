package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/logger"
	"github.com/mna-game/mna-indexer/internal/messaging"
)

type ethSubscriber struct {
	client   GameClient
	registry *domain.ContractRegistry
}

// NewSubscriber creates an Ethereum event subscriber for the watched
// game contracts
func NewSubscriber(client GameClient, registry *domain.ContractRegistry) messaging.Subscriber {
	return &ethSubscriber{client: client, registry: registry}
}

func (s *ethSubscriber) watchedAddresses() []common.Address {
	raw := s.registry.Addresses()
	addresses := make([]common.Address, 0, len(raw))
	for _, a := range raw {
		addresses = append(addresses, common.HexToAddress(a))
	}
	return addresses
}

// SubscribeEvents replays historical logs from fromBlock, then follows
// the live log stream. Events are delivered in chain order; a handler
// error aborts the subscription so the caller can resume from its cursor
// without gaps.
func (s *ethSubscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	addresses := s.watchedAddresses()
	topics := [][]common.Hash{watchedEventSignatures()}

	latest, err := s.GetLatestBlock(ctx)
	if err != nil {
		return err
	}

	if fromBlock > 0 && fromBlock <= latest {
		if err := s.catchUp(ctx, fromBlock, latest, addresses, topics, handler); err != nil {
			return err
		}
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(latest + 1),
		Addresses: addresses,
		Topics:    topics,
	}

	logs := make(chan types.Log)
	sub, err := s.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to filter logs: %w", err)
	}
	defer sub.Unsubscribe()

	logger.InfoCtx(ctx, "Subscribed to game contract logs", zap.Uint64("fromBlock", latest+1))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			if err := s.handleLog(ctx, vLog, handler); err != nil {
				return err
			}
		}
	}
}

// catchUp replays the logs between two blocks in chain order
func (s *ethSubscriber) catchUp(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash, handler messaging.EventHandler) error {
	logger.InfoCtx(ctx, "Replaying historical logs",
		zap.Uint64("fromBlock", fromBlock),
		zap.Uint64("toBlock", toBlock))

	vLogs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
		Topics:    topics,
	})
	if err != nil {
		return fmt.Errorf("failed to filter logs: %w", err)
	}

	// the node returns logs in order already; sorting keeps the ordering
	// guarantee independent of provider behavior
	sort.SliceStable(vLogs, func(i, j int) bool {
		if vLogs[i].BlockNumber != vLogs[j].BlockNumber {
			return vLogs[i].BlockNumber < vLogs[j].BlockNumber
		}
		if vLogs[i].TxIndex != vLogs[j].TxIndex {
			return vLogs[i].TxIndex < vLogs[j].TxIndex
		}
		return vLogs[i].Index < vLogs[j].Index
	})

	for _, vLog := range vLogs {
		if err := s.handleLog(ctx, vLog, handler); err != nil {
			return err
		}
	}
	return nil
}

func (s *ethSubscriber) handleLog(ctx context.Context, vLog types.Log, handler messaging.EventHandler) error {
	event, err := s.client.ParseEventLog(ctx, vLog)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// a malformed log on a watched contract is worth seeing, but must
		// not wedge the stream
		logger.ErrorCtx(ctx, err, zap.String("txHash", vLog.TxHash.Hex()))
		return nil
	}
	if event == nil {
		return nil
	}
	return handler(event)
}

// GetLatestBlock returns the latest block number
func (s *ethSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (s *ethSubscriber) Close() {
	if s.client == nil {
		return
	}
	s.client.Close()
	logger.Info("Ethereum WebSocket connection closed")
}
