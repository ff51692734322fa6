// Package flow drives one learner's visit to a lesson through lesson, quiz, game and completion.
package flow

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
	"github.com/yungbote/learn2go-backend/internal/learning/catalog"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
	"github.com/yungbote/learn2go-backend/internal/learning/quiz"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

const (
	DefaultQuizResultDelay      = 2 * time.Second
	DefaultGameCelebrationDelay = 3 * time.Second
)

type Config struct {
	UserID  uuid.UUID
	VisitID uuid.UUID
	Locale  string
	Region  string
	Theme   string

	PassThreshold        int
	QuizResultDelay      time.Duration
	GameCelebrationDelay time.Duration
}

type Deps struct {
	Log          *logger.Logger
	Progress     ProgressStore
	Telemetry    TelemetrySink
	Game         game.Adapter
	Catalog      *catalog.Catalog
	Clock        Clock
	// OnTransition sees the visit after each timer-driven state change, in event order.
	OnTransition func(Snapshot)
}

type Controller struct {
	cfg       Config
	lesson    *learning.Lesson
	log       *logger.Logger
	progress  ProgressStore
	sink      TelemetrySink
	adapter   game.Adapter
	catalog   *catalog.Catalog
	clock     Clock
	evaluator quiz.Evaluator
	gameKind  game.Kind
	onChange  func(Snapshot)

	ctx      context.Context
	cancel   context.CancelFunc
	dispatch *dispatcher

	mu            sync.Mutex
	state         State
	current       int
	answers       quiz.AnswerSet
	result        *quiz.Result
	attempts      int
	startedAt     time.Time
	quizStartedAt time.Time
	completedAt   time.Time
	gameScore     *int
	route         string
	timer         Timer
	timerSeq      int
	gameSeq       int
	closed        bool
}

// New starts a visit in the Lesson state and records lesson_start. A nil Progress or Telemetry
// dependency turns the matching writes off.
func New(lesson *learning.Lesson, cfg Config, deps Deps) (*Controller, error) {
	if lesson == nil {
		return nil, ErrNoLesson
	}
	if len(lesson.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}
	if cfg.QuizResultDelay <= 0 {
		cfg.QuizResultDelay = DefaultQuizResultDelay
	}
	if cfg.GameCelebrationDelay <= 0 {
		cfg.GameCelebrationDelay = DefaultGameCelebrationDelay
	}
	if cfg.VisitID == uuid.Nil {
		cfg.VisitID = uuid.New()
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "LessonFlow", "visit_id", cfg.VisitID, "lesson_id", lesson.ID)
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	adapter := deps.Game
	if adapter == nil {
		adapter = game.NewRelay()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:       cfg,
		lesson:    lesson,
		log:       log,
		progress:  deps.Progress,
		sink:      deps.Telemetry,
		adapter:   adapter,
		catalog:   deps.Catalog,
		clock:     clock,
		evaluator: quiz.NewEvaluator(cfg.PassThreshold),
		gameKind:  game.KindFor(lesson),
		onChange:  deps.OnTransition,
		ctx:       ctx,
		cancel:    cancel,
		dispatch:  newDispatcher(ctx, log),
		state:     StateLesson,
		answers:   quiz.AnswerSet{},
		startedAt: clock.Now(),
	}
	c.emitLocked(telemetry.EventLessonStart, map[string]any{
		"locale": cfg.Locale,
		"region": cfg.Region,
	})
	return c, nil
}

func (c *Controller) VisitID() uuid.UUID { return c.cfg.VisitID }
func (c *Controller) UserID() uuid.UUID { return c.cfg.UserID }
func (c *Controller) Lesson() *learning.Lesson { return c.lesson }
func (c *Controller) GameKind() game.Kind { return c.gameKind }

// Continue moves from Lesson to Quiz and starts a new attempt.
func (c *Controller) Continue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateLesson {
		return ErrInvalidTransition
	}
	c.state = StateQuiz
	c.startAttemptLocked()
	return nil
}

// Answer selects an option for the current question, replacing any earlier selection for it.
func (c *Controller) Answer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOpenQuizLocked(); err != nil {
		return err
	}
	q := c.lesson.Questions[c.current]
	if option < 0 || option >= len(q.Options) {
		return ErrInvalidOption
	}
	c.answers[c.current] = option
	return nil
}

// Next advances to the following question, or submits the attempt on the last one.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOpenQuizLocked(); err != nil {
		return err
	}
	if !c.answers.Has(c.current) {
		return ErrAnswerRequired
	}
	if c.current < len(c.lesson.Questions)-1 {
		c.current++
		return nil
	}
	c.submitLocked()
	return nil
}

// Retake restarts a failed attempt from the first question.
func (c *Controller) Retake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateQuiz || c.result == nil || c.result.Passed {
		return ErrInvalidTransition
	}
	c.startAttemptLocked()
	return nil
}

// BackToLesson leaves the quiz unless a passing result is about to move on to the game.
func (c *Controller) BackToLesson() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateQuiz || (c.result != nil && c.result.Passed) {
		return ErrInvalidTransition
	}
	c.state = StateLesson
	c.current = 0
	c.answers = quiz.AnswerSet{}
	c.result = nil
	return nil
}

// Finish emits lesson_complete once and returns the next lesson route or the dashboard.
func (c *Controller) Finish() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	if c.state != StateComplete {
		return "", ErrInvalidTransition
	}
	if c.route != "" {
		return c.route, nil
	}
	c.route = catalog.DashboardRoute
	if c.catalog != nil {
		c.route = c.catalog.NextRoute(c.lesson.ID)
	}
	payload := map[string]any{
		"elapsed_ms": c.completedAt.Sub(c.startedAt).Milliseconds(),
		"next_route": c.route,
	}
	if c.result != nil {
		payload["quiz_score"] = c.result.Score
	}
	if c.gameScore != nil {
		payload["game_score"] = *c.gameScore
	}
	c.emitLocked(telemetry.EventLessonComplete, payload)
	return c.route, nil
}

// Close cancels pending timers and the running game, then waits for queued writes to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
	c.cancel()
	c.dispatch.close()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) requireOpenQuizLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.state != StateQuiz || c.result != nil {
		return ErrInvalidTransition
	}
	return nil
}

func (c *Controller) startAttemptLocked() {
	c.current = 0
	c.answers = quiz.AnswerSet{}
	c.result = nil
	c.quizStartedAt = c.clock.Now()
	c.attempts++
	c.emitLocked(telemetry.EventQuizAttempt, map[string]any{
		"attempt":   c.attempts,
		"questions": len(c.lesson.Questions),
	})
}

func (c *Controller) submitLocked() {
	res := c.evaluator.Evaluate(c.lesson.Questions, c.answers)
	c.result = &res

	userID, lessonID := c.cfg.UserID, c.lesson.ID
	if c.progress != nil {
		c.dispatch.submit("progress.upsert", func(ctx context.Context) error {
			return c.progress.UpsertProgress(ctx, userID, lessonID, res.Score, res.Passed)
		})
	}
	c.emitLocked(telemetry.EventQuizComplete, map[string]any{
		"attempt":     c.attempts,
		"score":       res.Score,
		"correct":     res.Correct,
		"total":       res.Total,
		"passed":      res.Passed,
		"duration_ms": c.clock.Now().Sub(c.quizStartedAt).Milliseconds(),
	})
	if res.Passed {
		c.scheduleLocked(c.cfg.QuizResultDelay, c.enterGame)
	}
}

func (c *Controller) enterGame() {
	c.mu.Lock()
	if c.closed || c.state != StateQuiz || c.result == nil || !c.result.Passed {
		c.mu.Unlock()
		return
	}
	c.state = StateGame
	c.gameSeq++
	seq := c.gameSeq
	params := game.Params{
		LessonID: c.lesson.ID,
		Locale:   c.cfg.Locale,
		Region:   c.cfg.Region,
		Theme:    c.cfg.Theme,
		Kind:     c.gameKind,
	}
	c.notifyLocked()
	c.mu.Unlock()

	// The adapter may call back before Start returns, so it runs without the lock.
	if err := c.adapter.Start(c.ctx, params, func(score float64) { c.gameCompleted(seq, score) }); err != nil {
		c.log.Warn("game adapter failed to start", "kind", params.Kind, "error", err)
	}
}

func (c *Controller) gameCompleted(seq int, raw float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateGame || seq != c.gameSeq || c.gameScore != nil {
		return
	}
	score := ClampScore(raw)
	c.gameScore = &score

	userID, lessonID := c.cfg.UserID, c.lesson.ID
	if c.progress != nil {
		c.dispatch.submit("progress.game_score", func(ctx context.Context) error {
			return c.progress.RecordGameScore(ctx, userID, lessonID, score)
		})
	}
	c.emitLocked(telemetry.EventGamePlay, map[string]any{
		"kind":     string(c.gameKind),
		"score":    score,
		"reported": raw,
	})
	c.scheduleLocked(c.cfg.GameCelebrationDelay, c.enterComplete)
}

func (c *Controller) enterComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateGame || c.gameScore == nil {
		return
	}
	c.state = StateComplete
	c.completedAt = c.clock.Now()
	c.notifyLocked()
}

func (c *Controller) notifyLocked() {
	if c.onChange == nil {
		return
	}
	c.dispatch.submit("notify", func(context.Context) error {
		c.onChange(c.Snapshot())
		return nil
	})
}

// scheduleLocked replaces any pending timer; a superseded callback is a no-op.
func (c *Controller) scheduleLocked(d time.Duration, f func()) {
	c.stopTimerLocked()
	c.timerSeq++
	seq := c.timerSeq
	c.timer = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		stale := seq != c.timerSeq
		if !stale {
			c.timer = nil
		}
		c.mu.Unlock()
		if !stale {
			f()
		}
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
}

func (c *Controller) emitLocked(t telemetry.EventType, payload map[string]any) {
	if c.sink == nil {
		return
	}
	ev := Event{
		UserID:     c.cfg.UserID,
		VisitID:    c.cfg.VisitID,
		LessonID:   c.lesson.ID,
		Type:       t,
		Payload:    payload,
		OccurredAt: c.clock.Now(),
	}
	c.dispatch.submit("telemetry."+string(t), func(ctx context.Context) error {
		return c.sink.Record(ctx, ev)
	})
}

// ClampScore rounds a reported game score and bounds it to [0,100]. NaN counts as 0.
func ClampScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	v := math.Round(raw)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}
