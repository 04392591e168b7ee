package mocks

import (
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// MockNATSPubSub stands in for a JetStream upstream when no broker is
// reachable. Published events are kept so they can be inspected.
type MockNATSPubSub struct {
	*pubsub.MemoryBus
}

// NewMockNATSPubSub creates a mock NATS pub/sub using the in-memory bus
func NewMockNATSPubSub() *MockNATSPubSub {
	logger.Info("Using MOCK NATS/JetStream (in-memory pub/sub) for local development")

	return &MockNATSPubSub{
		MemoryBus: pubsub.NewMemoryBus(1000),
	}
}
