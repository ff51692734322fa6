package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime"
	"github.com/yungbote/learn2go-backend/internal/realtime/bus"
)

const DefaultVisitIdleTTL = 30 * time.Minute

var ErrVisitNotFound = errors.New("visit not found")

type VisitConfig struct {
	PassThreshold        int
	QuizResultDelay      time.Duration
	GameCelebrationDelay time.Duration
	IdleTTL              time.Duration
}

type VisitOptions struct {
	Locale string `json:"locale"`
	Region string `json:"region"`
	Theme  string `json:"theme"`

	// AllowDrafts lets admins preview unpublished lessons. It is never read from the body.
	AllowDrafts bool `json:"-"`
}

// VisitService hosts one lesson flow controller per active visit. A user has at most one
// visit; starting another closes the previous one.
type VisitService interface {
	Start(ctx context.Context, userID, lessonID uuid.UUID, opts VisitOptions) (flow.Snapshot, error)
	Snapshot(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	Continue(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	Answer(ctx context.Context, userID, visitID uuid.UUID, option int) (flow.Snapshot, error)
	Next(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	Retake(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	BackToLesson(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	ReportGame(ctx context.Context, userID, visitID uuid.UUID, score float64) (flow.Snapshot, error)
	Finish(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)
	Leave(ctx context.Context, userID, visitID uuid.UUID) error
	Sweep(now time.Time) int
	Run(ctx context.Context)
	Close()
}

type visit struct {
	userID   uuid.UUID
	ctl      *flow.Controller
	relay    *game.Relay
	mu       sync.Mutex
	lastSeen time.Time
}

func (v *visit) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *visit) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

type visitService struct {
	log       *logger.Logger
	cfg       VisitConfig
	lessons   LessonService
	progress  flow.ProgressStore
	telemetry flow.TelemetrySink
	bus       bus.Bus
	clock     flow.Clock

	mu     sync.Mutex
	visits map[uuid.UUID]*visit
	byUser map[uuid.UUID]uuid.UUID
}

func NewVisitService(
	baseLog *logger.Logger,
	cfg VisitConfig,
	lessons LessonService,
	progress flow.ProgressStore,
	telemetry flow.TelemetrySink,
	b bus.Bus,
	clock flow.Clock,
) VisitService {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultVisitIdleTTL
	}
	if clock == nil {
		clock = flow.SystemClock()
	}
	return &visitService{
		log:       baseLog.With("service", "VisitService"),
		cfg:       cfg,
		lessons:   lessons,
		progress:  progress,
		telemetry: telemetry,
		bus:       b,
		clock:     clock,
		visits:    make(map[uuid.UUID]*visit),
		byUser:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *visitService) Start(ctx context.Context, userID, lessonID uuid.UUID, opts VisitOptions) (flow.Snapshot, error) {
	ctx, span := otel.Tracer("learn2go/services").Start(ctx, "visit.start")
	defer span.End()
	span.SetAttributes(attribute.String("lesson.id", lessonID.String()))

	lesson, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	if !lesson.Published && !opts.AllowDrafts {
		return flow.Snapshot{}, apierr.NotFound("lesson_not_found", ErrLessonNotFound)
	}
	locale := opts.Locale
	if locale == "" {
		locale = lesson.Locale
	}
	region := opts.Region
	if region == "" {
		region = lesson.Region
	}
	cat, err := s.lessons.Catalog(ctx, locale, region)
	if err != nil {
		// Without a catalog Finish falls back to the dashboard route.
		s.log.Warn("catalog unavailable for visit", "lesson_id", lessonID, "error", err)
	}

	visitID := uuid.New()
	relay := game.NewRelay()
	ctl, err := flow.New(lesson, flow.Config{
		UserID:               userID,
		VisitID:              visitID,
		Locale:               locale,
		Region:               region,
		Theme:                opts.Theme,
		PassThreshold:        s.cfg.PassThreshold,
		QuizResultDelay:      s.cfg.QuizResultDelay,
		GameCelebrationDelay: s.cfg.GameCelebrationDelay,
	}, flow.Deps{
		Log:          s.log,
		Progress:     s.progress,
		Telemetry:    s.telemetry,
		Game:         relay,
		Catalog:      cat,
		Clock:        s.clock,
		OnTransition: func(snap flow.Snapshot) { s.publish(userID, realtime.SSEEventVisitUpdated, snap) },
	})
	if errors.Is(err, flow.ErrEmptyQuiz) {
		return flow.Snapshot{}, apierr.New(http.StatusUnprocessableEntity, "lesson_without_quiz", err)
	}
	if err != nil {
		return flow.Snapshot{}, err
	}

	v := &visit{userID: userID, ctl: ctl, relay: relay, lastSeen: s.clock.Now()}
	s.mu.Lock()
	var prev *visit
	if prevID, ok := s.byUser[userID]; ok {
		prev = s.visits[prevID]
		delete(s.visits, prevID)
	}
	s.visits[visitID] = v
	s.byUser[userID] = visitID
	observability.Current().SetActiveVisits(len(s.visits))
	s.mu.Unlock()

	if prev != nil {
		s.closeVisit(prev, "replaced")
	}
	s.log.Info("visit started", "visit_id", visitID, "user_id", userID, "lesson_id", lessonID)
	return ctl.Snapshot(), nil
}

func (s *visitService) Snapshot(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	v, err := s.lookup(userID, visitID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	return v.ctl.Snapshot(), nil
}

func (s *visitService) Continue(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.ctl.Continue() })
}

func (s *visitService) Answer(ctx context.Context, userID, visitID uuid.UUID, option int) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.ctl.Answer(option) })
}

func (s *visitService) Next(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.ctl.Next() })
}

func (s *visitService) Retake(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.ctl.Retake() })
}

func (s *visitService) BackToLesson(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.ctl.BackToLesson() })
}

// ReportGame forwards the browser's final game score to the visit's relay.
func (s *visitService) ReportGame(ctx context.Context, userID, visitID uuid.UUID, score float64) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error { return v.relay.Report(score) })
}

func (s *visitService) Finish(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
	return s.act(userID, visitID, func(v *visit) error {
		_, err := v.ctl.Finish()
		return err
	})
}

func (s *visitService) Leave(ctx context.Context, userID, visitID uuid.UUID) error {
	s.mu.Lock()
	v, ok := s.visits[visitID]
	if !ok || v.userID != userID {
		s.mu.Unlock()
		return apierr.NotFound("visit_not_found", ErrVisitNotFound)
	}
	s.removeLocked(visitID, v)
	s.mu.Unlock()
	s.closeVisit(v, "left")
	return nil
}

// Sweep closes visits idle for longer than the configured TTL and returns how many it closed.
func (s *visitService) Sweep(now time.Time) int {
	var expired []*visit
	s.mu.Lock()
	for id, v := range s.visits {
		if now.Sub(v.idleSince()) > s.cfg.IdleTTL {
			s.removeLocked(id, v)
			expired = append(expired, v)
		}
	}
	s.mu.Unlock()
	for _, v := range expired {
		s.closeVisit(v, "idle")
	}
	return len(expired)
}

// Run sweeps idle visits until ctx is done.
func (s *visitService) Run(ctx context.Context) {
	interval := s.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.clock.Now()); n > 0 {
				s.log.Info("idle visits closed", "count", n)
			}
		}
	}
}

// Close ends every visit, letting queued writes finish.
func (s *visitService) Close() {
	s.mu.Lock()
	all := make([]*visit, 0, len(s.visits))
	for id, v := range s.visits {
		s.removeLocked(id, v)
		all = append(all, v)
	}
	s.mu.Unlock()
	for _, v := range all {
		s.closeVisit(v, "shutdown")
	}
}

func (s *visitService) lookup(userID, visitID uuid.UUID) (*visit, error) {
	s.mu.Lock()
	v, ok := s.visits[visitID]
	s.mu.Unlock()
	if !ok || v.userID != userID {
		return nil, apierr.NotFound("visit_not_found", ErrVisitNotFound)
	}
	v.touch(s.clock.Now())
	return v, nil
}

func (s *visitService) act(userID, visitID uuid.UUID, fn func(v *visit) error) (flow.Snapshot, error) {
	v, err := s.lookup(userID, visitID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	if err := fn(v); err != nil {
		return v.ctl.Snapshot(), mapFlowErr(err)
	}
	return v.ctl.Snapshot(), nil
}

func (s *visitService) removeLocked(id uuid.UUID, v *visit) {
	delete(s.visits, id)
	if cur, ok := s.byUser[v.userID]; ok && cur == id {
		delete(s.byUser, v.userID)
	}
	observability.Current().SetActiveVisits(len(s.visits))
}

func (s *visitService) closeVisit(v *visit, reason string) {
	v.ctl.Close()
	observability.Current().IncVisitClosed(reason)
	s.log.Debug("visit closed", "visit_id", v.ctl.VisitID(), "reason", reason)
	s.publish(v.userID, realtime.SSEEventVisitClosed, map[string]any{
		"visit_id": v.ctl.VisitID(),
		"reason":   reason,
	})
}

func (s *visitService) publish(userID uuid.UUID, event realtime.SSEEvent, data any) {
	if s.bus == nil {
		return
	}
	msg := realtime.SSEMessage{Channel: realtime.UserChannel(userID), Event: event, Data: data}
	if err := s.bus.Publish(context.Background(), msg); err != nil {
		s.log.Warn("publish visit update failed", "event", event, "error", err)
	}
}

func mapFlowErr(err error) error {
	switch {
	case errors.Is(err, flow.ErrAnswerRequired):
		return apierr.New(http.StatusUnprocessableEntity, "answer_required", err)
	case errors.Is(err, flow.ErrInvalidOption):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_option", err)
	case errors.Is(err, flow.ErrInvalidTransition):
		return apierr.Conflict("invalid_transition", err)
	case errors.Is(err, flow.ErrClosed):
		return apierr.New(http.StatusGone, "visit_closed", err)
	case errors.Is(err, game.ErrNotStarted):
		return apierr.Conflict("game_not_started", err)
	case errors.Is(err, game.ErrAlreadyReported):
		return apierr.Conflict("game_already_reported", err)
	}
	return err
}
