package game

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type Params struct {
	LessonID uuid.UUID
	Locale   string
	Region   string
	Theme    string
	Kind     Kind
}

// Adapter starts a mini-game. onComplete may be called from any goroutine, at any later time,
// or never; the host must not assume it runs before Start returns.
type Adapter interface {
	Start(ctx context.Context, p Params, onComplete func(score float64)) error
}

var (
	ErrNotStarted      = errors.New("game not started")
	ErrAlreadyReported = errors.New("game score already reported")
)

// Relay is the adapter for games played in the browser: the client posts its final score and
// Report forwards it to the subscribed callback exactly once.
type Relay struct {
	mu         sync.Mutex
	params     *Params
	onComplete func(float64)
	reported   bool
}

func NewRelay() *Relay { return &Relay{} }

func (r *Relay) Start(_ context.Context, p Params, onComplete func(score float64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = &p
	r.onComplete = onComplete
	r.reported = false
	return nil
}

func (r *Relay) Params() (Params, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.params == nil {
		return Params{}, false
	}
	return *r.params, true
}

func (r *Relay) Report(score float64) error {
	r.mu.Lock()
	cb := r.onComplete
	switch {
	case cb == nil:
		r.mu.Unlock()
		return ErrNotStarted
	case r.reported:
		r.mu.Unlock()
		return ErrAlreadyReported
	}
	r.reported = true
	r.mu.Unlock()
	cb(score)
	return nil
}
