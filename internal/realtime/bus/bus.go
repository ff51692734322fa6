// Package bus fans realtime messages out across backend instances.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/learn2go-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

var errNoForwarder = errors.New("onMsg callback required")

// localBus delivers in-process for single-instance deployments.
type localBus struct {
	mu    sync.RWMutex
	onMsg []func(realtime.SSEMessage)
}

func NewLocalBus() Bus { return &localBus{} }

func (b *localBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.onMsg {
		fn(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return errNoForwarder
	}
	b.mu.Lock()
	b.onMsg = append(b.onMsg, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	b.onMsg = nil
	b.mu.Unlock()
	return nil
}
