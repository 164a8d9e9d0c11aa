package messaging

import (
	"context"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// EventHandler is called for each decoded game event, in chain order
type EventHandler func(event *domain.GameEvent) error

// Subscriber defines the interface for following on-chain game events
type Subscriber interface {
	// SubscribeEvents streams events for the watched contracts starting
	// at fromBlock (0 for latest), invoking handler for each one
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
