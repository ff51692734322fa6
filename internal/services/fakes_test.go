package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/learning/catalog"
	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/realtime"
)

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) flow.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var next *manualTimer
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

type fakeLessons struct {
	lessons []*types.Lesson

	mu       sync.Mutex
	catalogs [][2]string // locale, region per Catalog call
}

func (f *fakeLessons) GetLesson(_ context.Context, id uuid.UUID) (*types.Lesson, error) {
	for _, l := range f.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, apierr.NotFound("lesson_not_found", ErrLessonNotFound)
}

func (f *fakeLessons) ListCatalog(context.Context, string, string) ([]*types.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeLessons) Catalog(ctx context.Context, locale, region string) (*catalog.Catalog, error) {
	f.mu.Lock()
	f.catalogs = append(f.catalogs, [2]string{locale, region})
	f.mu.Unlock()
	return catalog.New(f.lessons), nil
}

func (f *fakeLessons) Create(context.Context, LessonInput) (*types.Lesson, error) { return nil, nil }

func (f *fakeLessons) Update(context.Context, uuid.UUID, LessonInput) (*types.Lesson, error) {
	return nil, nil
}

func (f *fakeLessons) Delete(context.Context, uuid.UUID) error { return nil }

type recordingProgress struct {
	mu     sync.Mutex
	scores []int
	games  []int
}

func (p *recordingProgress) UpsertProgress(_ context.Context, _, _ uuid.UUID, score int, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scores = append(p.scores, score)
	return nil
}

func (p *recordingProgress) RecordGameScore(_ context.Context, _, _ uuid.UUID, score int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.games = append(p.games, score)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []flow.Event
}

func (s *recordingSink) Record(_ context.Context, ev flow.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// recordingBus captures published messages.
type recordingBus struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (b *recordingBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *recordingBus) StartForwarder(context.Context, func(realtime.SSEMessage)) error { return nil }
func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) events() []realtime.SSEEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(b.msgs))
	for _, m := range b.msgs {
		out = append(out, m.Event)
	}
	return out
}

func quizLesson(position int, correct ...int) *types.Lesson {
	l := &types.Lesson{ID: uuid.New(), Title: "lesson", Locale: "en", Position: position, Category: "signs", Published: true}
	for i, c := range correct {
		l.Questions = append(l.Questions, types.QuizQuestion{
			ID:           uuid.New(),
			Index:        i,
			Prompt:       "q",
			Options:      []string{"a", "b", "c"},
			CorrectIndex: c,
		})
	}
	return l
}
