package messaging

import (
	"context"

	"github.com/mna-game/mna-indexer/internal/domain"
)

// Publisher defines the interface for publishing game events to the
// message broker
type Publisher interface {
	// PublishEvent publishes a decoded game event
	PublishEvent(ctx context.Context, event *domain.GameEvent) error
	// Close closes the connection
	Close()
}
