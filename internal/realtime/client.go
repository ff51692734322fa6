package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const outboundBuffer = 64

// SSEClient is one open event stream. Channels is owned by the hub and read under its lock.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan SSEMessage

	channels  map[string]struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSSEClient(userID uuid.UUID) *SSEClient {
	return &SSEClient{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan SSEMessage, outboundBuffer),
		channels: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// offer queues msg without blocking and reports whether it fit.
func (c *SSEClient) offer(msg SSEMessage) bool {
	select {
	case c.Outbound <- msg:
		return true
	default:
		return false
	}
}
