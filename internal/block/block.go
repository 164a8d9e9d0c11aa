package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/logger"
)

// TimestampProvider provides cached access to block timestamps. Game
// events are stamped with their block time, and one block usually emits
// several logs (mint + transfer + theft share a transaction), so caching
// saves a header fetch per log.
type TimestampProvider interface {
	// GetBlockTimestamp returns the timestamp for a given block number,
	// potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Fetcher is the interface for fetching block information from the chain
type Fetcher interface {
	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Confirmed block timestamps are immutable, entries never expire. The
// cache is cleared wholesale once it grows past maxEntries.
const maxEntries = 4096

// timestampProvider implements TimestampProvider
type timestampProvider struct {
	fetcher Fetcher

	mu         sync.RWMutex
	timestamps map[uint64]time.Time
}

// NewTimestampProvider creates a caching TimestampProvider over a Fetcher
func NewTimestampProvider(fetcher Fetcher) TimestampProvider {
	return &timestampProvider{
		fetcher:    fetcher,
		timestamps: make(map[uint64]time.Time),
	}
}

// GetBlockTimestamp returns the timestamp for a given block number,
// using cache if present
func (p *timestampProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	cached, ok := p.timestamps[blockNumber]
	p.mu.RUnlock()

	if ok {
		return cached, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp",
		zap.Uint64("block_number", blockNumber))
	timestamp, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	if len(p.timestamps) >= maxEntries {
		p.timestamps = make(map[uint64]time.Time)
	}
	p.timestamps[blockNumber] = timestamp
	p.mu.Unlock()

	return timestamp, nil
}
