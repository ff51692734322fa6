package realtime

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

// SSEHub routes messages to the clients subscribed to a channel on this instance. Cross-instance
// fan-out goes through a bus that calls Broadcast.
type SSEHub struct {
	log *logger.Logger

	mu       sync.RWMutex
	channels map[string]map[*SSEClient]struct{}
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		log:      log.With("component", "SSEHub"),
		channels: make(map[string]map[*SSEClient]struct{}),
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	return newSSEClient(userID)
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	subs := hub.channels[channel]
	if subs == nil {
		subs = make(map[*SSEClient]struct{})
		hub.channels[channel] = subs
	}
	subs[client] = struct{}{}
	client.channels[channel] = struct{}{}
	hub.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveChannel(client *SSEClient, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.dropLocked(client, strings.TrimSpace(channel))
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range client.channels {
		hub.dropLocked(client, ch)
	}
}

func (hub *SSEHub) dropLocked(client *SSEClient, channel string) {
	delete(client.channels, channel)
	subs := hub.channels[channel]
	delete(subs, client)
	if len(subs) == 0 {
		delete(hub.channels, channel)
	}
}

func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.channels[channel])
}

// Broadcast never blocks: a client whose buffer is full misses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for c := range hub.channels[msg.Channel] {
		if !c.offer(msg) {
			hub.log.Warn("Dropping SSE message; outbound buffer full", "client_id", c.ID, "channel", msg.Channel, "event", msg.Event)
		}
	}
}

// CloseClient unsubscribes client before closing Outbound so Broadcast never sends on a
// closed channel. Safe to call more than once.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	client.closeOnce.Do(func() {
		hub.RemoveClient(client)
		close(client.done)
		close(client.Outbound)
	})
}
