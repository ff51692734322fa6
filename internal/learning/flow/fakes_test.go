package flow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order. Timers scheduled by a callback fire
// too when they fall inside the window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				next = t
				break
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type progressWrite struct {
	UserID    uuid.UUID
	LessonID  uuid.UUID
	Score     int
	Completed bool
	Game      bool
}

type fakeProgress struct {
	mu     sync.Mutex
	writes []progressWrite
	err    error
}

func (p *fakeProgress) UpsertProgress(_ context.Context, userID, lessonID uuid.UUID, score int, completed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, progressWrite{UserID: userID, LessonID: lessonID, Score: score, Completed: completed})
	return p.err
}

func (p *fakeProgress) RecordGameScore(_ context.Context, userID, lessonID uuid.UUID, score int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, progressWrite{UserID: userID, LessonID: lessonID, Score: score, Game: true})
	return p.err
}

func (p *fakeProgress) all() []progressWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]progressWrite(nil), p.writes...)
}

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *fakeSink) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *fakeSink) types() []telemetry.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

func (s *fakeSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// fakeGame holds the callback so a test can report whenever it likes.
type fakeGame struct {
	mu       sync.Mutex
	params   []game.Params
	callback func(float64)
	ctx      context.Context
	startErr error
	// syncScore, when set, is reported from inside Start.
	syncScore *float64
}

func (g *fakeGame) Start(ctx context.Context, p game.Params, onComplete func(float64)) error {
	g.mu.Lock()
	g.params = append(g.params, p)
	g.callback = onComplete
	g.ctx = ctx
	syncScore := g.syncScore
	g.mu.Unlock()
	if g.startErr != nil {
		return g.startErr
	}
	if syncScore != nil {
		onComplete(*syncScore)
	}
	return nil
}

func (g *fakeGame) report(score float64) {
	g.mu.Lock()
	cb := g.callback
	g.mu.Unlock()
	if cb != nil {
		cb(score)
	}
}

func (g *fakeGame) started() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.params)
}

var errStoreDown = errors.New("store unavailable")

// flush blocks until everything submitted to d before the call has run.
func (d *dispatcher) flush() {
	barrier := make(chan struct{})
	if !d.submit("flush", func(context.Context) error { close(barrier); return nil }) {
		<-d.done
		return
	}
	select {
	case <-barrier:
	case <-d.done:
	}
}
