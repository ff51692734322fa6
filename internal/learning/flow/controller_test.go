package flow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
	"github.com/yungbote/learn2go-backend/internal/learning/catalog"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
)

type harness struct {
	t        *testing.T
	ctl      *Controller
	clock    *fakeClock
	progress *fakeProgress
	sink     *fakeSink
	game     *fakeGame
	lesson   *learning.Lesson
}

// lessonWith builds a lesson whose questions have four options and the given correct indices.
func lessonWith(correct ...int) *learning.Lesson {
	l := &learning.Lesson{ID: uuid.New(), Title: "Crossing the street", Category: "crossing"}
	for i, c := range correct {
		l.Questions = append(l.Questions, learning.QuizQuestion{
			ID:           uuid.New(),
			Index:        i,
			Prompt:       "question",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: c,
		})
	}
	return l
}

func newHarness(t *testing.T, lesson *learning.Lesson, cat *catalog.Catalog) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    newFakeClock(),
		progress: &fakeProgress{},
		sink:     &fakeSink{},
		game:     &fakeGame{},
		lesson:   lesson,
	}
	ctl, err := New(lesson, Config{
		UserID: uuid.New(),
		Locale: "en",
		Region: "us",
		Theme:  "dark",
	}, Deps{
		Progress:  h.progress,
		Telemetry: h.sink,
		Game:      h.game,
		Catalog:   cat,
		Clock:     h.clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.ctl = ctl
	t.Cleanup(ctl.Close)
	return h
}

func (h *harness) answerAll(options ...int) {
	h.t.Helper()
	if err := h.ctl.Continue(); err != nil {
		h.t.Fatalf("Continue: %v", err)
	}
	h.answerQuiz(options...)
}

func (h *harness) answerQuiz(options ...int) {
	h.t.Helper()
	for i, opt := range options {
		if err := h.ctl.Answer(opt); err != nil {
			h.t.Fatalf("Answer(%d) q%d: %v", opt, i, err)
		}
		if err := h.ctl.Next(); err != nil {
			h.t.Fatalf("Next q%d: %v", i, err)
		}
	}
}

func (h *harness) flush() { h.ctl.dispatch.flush() }

func (h *harness) state() State { return h.ctl.Snapshot().State }

func TestNewRejectsMissingContent(t *testing.T) {
	if _, err := New(nil, Config{}, Deps{}); !errors.Is(err, ErrNoLesson) {
		t.Fatalf("nil lesson: want ErrNoLesson got=%v", err)
	}
	if _, err := New(&learning.Lesson{ID: uuid.New()}, Config{}, Deps{}); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("no questions: want ErrEmptyQuiz got=%v", err)
	}
}

func TestPerfectScoreAdvancesToGameAfterDelay(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0, 2, 3), nil)
	h.answerAll(1, 0, 2, 3)

	snap := h.ctl.Snapshot()
	if snap.State != StateQuiz || snap.Result == nil || snap.Result.Score != 100 || !snap.Result.Passed {
		t.Fatalf("after submit: %+v result=%+v", snap, snap.Result)
	}
	h.clock.Advance(DefaultQuizResultDelay - time.Millisecond)
	if h.state() != StateQuiz {
		t.Fatalf("advanced before the result delay elapsed")
	}
	h.clock.Advance(time.Millisecond)
	if h.state() != StateGame {
		t.Fatalf("want game after delay, got=%s", h.state())
	}
	if h.game.started() != 1 {
		t.Fatalf("adapter Start calls: want=1 got=%d", h.game.started())
	}
	p := h.game.params[0]
	if p.LessonID != h.lesson.ID || p.Locale != "en" || p.Region != "us" || p.Theme != "dark" || p.Kind != game.KindStreetCrossing {
		t.Fatalf("game params: %+v", p)
	}

	h.flush()
	writes := h.progress.all()
	if len(writes) != 1 || writes[0].Score != 100 || !writes[0].Completed {
		t.Fatalf("progress writes: %+v", writes)
	}
}

func TestPassingScoreOfSeventyFive(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0, 2, 3), nil)
	h.answerAll(1, 1, 2, 3)
	h.clock.Advance(DefaultQuizResultDelay)
	if h.state() != StateGame {
		t.Fatalf("75%% must pass: state=%s", h.state())
	}
	h.flush()
	if w := h.progress.all(); len(w) != 1 || w[0].Score != 75 || !w[0].Completed {
		t.Fatalf("progress writes: %+v", w)
	}
}

func TestFailingScoreStaysInQuizAndRetakeResets(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0, 2, 3), nil)
	h.answerAll(0, 1, 1, 0)

	h.clock.Advance(time.Hour)
	snap := h.ctl.Snapshot()
	if snap.State != StateQuiz || snap.Result == nil || snap.Result.Score != 0 || snap.Result.Passed {
		t.Fatalf("failed attempt: state=%s result=%+v", snap.State, snap.Result)
	}
	if h.clock.pending() != 0 {
		t.Fatalf("failing result must not schedule a transition")
	}
	h.flush()
	if w := h.progress.all(); len(w) != 1 || w[0].Score != 0 || w[0].Completed {
		t.Fatalf("progress writes: %+v", w)
	}

	if err := h.ctl.Answer(1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Answer after result: want ErrInvalidTransition got=%v", err)
	}
	if err := h.ctl.Retake(); err != nil {
		t.Fatalf("Retake: %v", err)
	}
	snap = h.ctl.Snapshot()
	if snap.QuestionIndex != 0 || len(snap.Answers) != 0 || snap.Result != nil || snap.Attempts != 2 {
		t.Fatalf("after retake: %+v", snap)
	}

	// Only the second attempt's answers count.
	h.answerQuiz(1, 0, 2, 0)
	snap = h.ctl.Snapshot()
	if snap.Result == nil || snap.Result.Score != 75 || snap.Result.Correct != 3 {
		t.Fatalf("second attempt result: %+v", snap.Result)
	}
}

func TestRetakeHasNoCap(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	if err := h.ctl.Continue(); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	for i := 0; i < 25; i++ {
		h.answerQuiz(3)
		if err := h.ctl.Retake(); err != nil {
			t.Fatalf("Retake %d: %v", i, err)
		}
	}
	if got := h.ctl.Snapshot().Attempts; got != 26 {
		t.Fatalf("attempts: want=26 got=%d", got)
	}
}

func TestNextRequiresAnswer(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0), nil)
	if err := h.ctl.Next(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Next in lesson: want ErrInvalidTransition got=%v", err)
	}
	if err := h.ctl.Continue(); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if err := h.ctl.Next(); !errors.Is(err, ErrAnswerRequired) {
		t.Fatalf("Next without answer: want ErrAnswerRequired got=%v", err)
	}
	if snap := h.ctl.Snapshot(); snap.QuestionIndex != 0 || snap.State != StateQuiz {
		t.Fatalf("guard violation changed state: %+v", snap)
	}
	if err := h.ctl.Answer(4); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Answer(4): want ErrInvalidOption got=%v", err)
	}
	if err := h.ctl.Answer(-1); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Answer(-1): want ErrInvalidOption got=%v", err)
	}
	if err := h.ctl.Answer(2); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := h.ctl.Answer(1); err != nil {
		t.Fatalf("re-Answer: %v", err)
	}
	if err := h.ctl.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if snap := h.ctl.Snapshot(); snap.QuestionIndex != 1 || snap.Answers[0] != 1 {
		t.Fatalf("after next: %+v", snap)
	}
}

func TestBackToLesson(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0), nil)
	if err := h.ctl.BackToLesson(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Back in lesson: want ErrInvalidTransition got=%v", err)
	}
	h.answerAll(0, 1)
	if err := h.ctl.BackToLesson(); err != nil {
		t.Fatalf("Back after failing: %v", err)
	}
	if h.state() != StateLesson {
		t.Fatalf("want lesson got=%s", h.state())
	}
	h.answerAll(1, 0)
	if err := h.ctl.BackToLesson(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Back after passing: want ErrInvalidTransition got=%v", err)
	}
	if err := h.ctl.Retake(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Retake after passing: want ErrInvalidTransition got=%v", err)
	}
}

func TestGameScoreClamping(t *testing.T) {
	cases := []struct {
		reported float64
		want     int
	}{
		{92.7, 93},
		{150, 100},
		{137, 100},
		{-5, 0},
		{0, 0},
		{100, 100},
		{49.5, 50},
	}
	for _, tc := range cases {
		h := newHarness(t, lessonWith(0), nil)
		h.answerAll(0)
		h.clock.Advance(DefaultQuizResultDelay)
		h.game.report(tc.reported)

		snap := h.ctl.Snapshot()
		if snap.GameScore == nil || *snap.GameScore != tc.want {
			t.Fatalf("report %v: want=%d got=%v", tc.reported, tc.want, snap.GameScore)
		}
		h.flush()
		ev := h.sink.last()
		if ev.Type != telemetry.EventGamePlay || ev.Payload["score"] != tc.want {
			t.Fatalf("report %v: game_play event %+v", tc.reported, ev)
		}
		writes := h.progress.all()
		if last := writes[len(writes)-1]; !last.Game || last.Score != tc.want {
			t.Fatalf("report %v: stored game score %+v", tc.reported, last)
		}
	}
}

func TestGameCompletesAfterCelebrationDelay(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay)
	h.game.report(92.7)
	h.game.report(10)

	h.clock.Advance(DefaultGameCelebrationDelay - time.Millisecond)
	if h.state() != StateGame {
		t.Fatalf("completed before celebration delay")
	}
	h.clock.Advance(time.Millisecond)
	snap := h.ctl.Snapshot()
	if snap.State != StateComplete || *snap.GameScore != 93 {
		t.Fatalf("complete: %+v", snap)
	}
	wantElapsed := DefaultQuizResultDelay + DefaultGameCelebrationDelay
	if snap.Elapsed != wantElapsed {
		t.Fatalf("elapsed: want=%s got=%s", wantElapsed, snap.Elapsed)
	}
	h.clock.Advance(time.Hour)
	if h.ctl.Snapshot().Elapsed != wantElapsed {
		t.Fatalf("elapsed must freeze once complete")
	}
}

func TestSynchronousGameCompletion(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	score := 80.0
	h.game.syncScore = &score
	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay + DefaultGameCelebrationDelay)
	if snap := h.ctl.Snapshot(); snap.State != StateComplete || *snap.GameScore != 80 {
		t.Fatalf("sync completion: %+v", snap)
	}
}

func TestGameStartErrorIsContained(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.game.startErr = errors.New("no such game")
	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay)
	if h.state() != StateGame {
		t.Fatalf("want game even when adapter fails, got=%s", h.state())
	}
}

func TestFinishRoutesThroughCatalog(t *testing.T) {
	first, last := lessonWith(0), lessonWith(0)
	cat := catalog.New([]*learning.Lesson{first, last})

	run := func(l *learning.Lesson) (string, *harness) {
		h := newHarness(t, l, cat)
		if _, err := h.ctl.Finish(); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Finish before complete: want ErrInvalidTransition got=%v", err)
		}
		h.answerAll(0)
		h.clock.Advance(DefaultQuizResultDelay)
		h.game.report(70)
		h.clock.Advance(DefaultGameCelebrationDelay)
		route, err := h.ctl.Finish()
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		return route, h
	}

	if route, _ := run(first); route != catalog.LessonRoute(last.ID) {
		t.Fatalf("first lesson: want next lesson route got=%s", route)
	}
	route, h := run(last)
	if route != catalog.DashboardRoute {
		t.Fatalf("last lesson: want dashboard got=%s", route)
	}
	again, err := h.ctl.Finish()
	if err != nil || again != route {
		t.Fatalf("second Finish: route=%s err=%v", again, err)
	}
	h.flush()
	n := 0
	for _, typ := range h.sink.types() {
		if typ == telemetry.EventLessonComplete {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("lesson_complete events: want=1 got=%d", n)
	}
}

func TestFinishWithoutCatalogGoesToDashboard(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay)
	h.game.report(100)
	h.clock.Advance(DefaultGameCelebrationDelay)
	if route, err := h.ctl.Finish(); err != nil || route != catalog.DashboardRoute {
		t.Fatalf("Finish: route=%s err=%v", route, err)
	}
}

func TestTelemetryOrder(t *testing.T) {
	h := newHarness(t, lessonWith(1, 0), nil)
	h.answerAll(0, 0)
	if err := h.ctl.Retake(); err != nil {
		t.Fatalf("Retake: %v", err)
	}
	h.answerQuiz(1, 0)
	h.clock.Advance(DefaultQuizResultDelay)
	h.game.report(88)
	h.clock.Advance(DefaultGameCelebrationDelay)
	if _, err := h.ctl.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	h.flush()

	want := []telemetry.EventType{
		telemetry.EventLessonStart,
		telemetry.EventQuizAttempt,
		telemetry.EventQuizComplete,
		telemetry.EventQuizAttempt,
		telemetry.EventQuizComplete,
		telemetry.EventGamePlay,
		telemetry.EventLessonComplete,
	}
	if got := h.sink.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("event order:\nwant=%v\n got=%v", want, got)
	}
	for _, ev := range h.sink.events {
		if ev.VisitID != h.ctl.VisitID() || ev.LessonID != h.lesson.ID || ev.UserID != h.ctl.UserID() {
			t.Fatalf("event identity: %+v", ev)
		}
	}
}

func TestStoreFailuresNeverBlockTheFlow(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.progress.err = errStoreDown
	h.sink.err = errStoreDown

	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay)
	h.game.report(60)
	h.clock.Advance(DefaultGameCelebrationDelay)
	if _, err := h.ctl.Finish(); err != nil {
		t.Fatalf("Finish with failing stores: %v", err)
	}
	h.flush()
	if got := len(h.sink.types()); got != 5 {
		t.Fatalf("sink attempts: want=5 got=%d", got)
	}
}

func TestCloseStopsPendingTransitions(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.answerAll(0)
	h.ctl.Close()

	h.clock.Advance(time.Hour)
	snap := h.ctl.Snapshot()
	if snap.State != StateQuiz || !snap.Closed {
		t.Fatalf("closed visit moved on: %+v", snap)
	}
	if h.game.started() != 0 {
		t.Fatalf("game started after close")
	}
	if err := h.ctl.Continue(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Continue after close: want ErrClosed got=%v", err)
	}
	// Writes queued before Close still ran.
	if got := len(h.progress.all()); got != 1 {
		t.Fatalf("progress writes after close: want=1 got=%d", got)
	}
	h.ctl.Close()
}

func TestCloseDuringGameCancelsAdapterContext(t *testing.T) {
	h := newHarness(t, lessonWith(0), nil)
	h.answerAll(0)
	h.clock.Advance(DefaultQuizResultDelay)
	h.ctl.Close()
	if err := h.game.ctx.Err(); !errors.Is(err, context.Canceled) {
		t.Fatalf("adapter context: want canceled got=%v", err)
	}
	h.game.report(50)
	if h.ctl.Snapshot().GameScore != nil {
		t.Fatalf("late game report recorded after close")
	}
}

func TestClampScore(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int
	}{{137, 100}, {-5, 0}, {150, 100}, {92.7, 93}, {0.4, 0}} {
		if got := ClampScore(tc.in); got != tc.want {
			t.Fatalf("ClampScore(%v): want=%d got=%d", tc.in, tc.want, got)
		}
	}
}

func TestRelayAdapterEndToEnd(t *testing.T) {
	relay := game.NewRelay()
	clock := newFakeClock()
	ctl, err := New(lessonWith(2), Config{UserID: uuid.New()}, Deps{Game: relay, Clock: clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctl.Close()
	if err := ctl.Continue(); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if err := ctl.Answer(2); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := ctl.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := relay.Report(90); !errors.Is(err, game.ErrNotStarted) {
		t.Fatalf("report before game: want ErrNotStarted got=%v", err)
	}
	clock.Advance(DefaultQuizResultDelay)
	if err := relay.Report(90); err != nil {
		t.Fatalf("Report: %v", err)
	}
	clock.Advance(DefaultGameCelebrationDelay)
	if snap := ctl.Snapshot(); snap.State != StateComplete || *snap.GameScore != 90 {
		t.Fatalf("relay flow: %+v", snap)
	}
}

func TestOnTransitionSeesTimerDrivenStates(t *testing.T) {
	clock := newFakeClock()
	g := &fakeGame{}
	var mu sync.Mutex
	var seen []State
	ctl, err := New(lessonWith(0), Config{UserID: uuid.New()}, Deps{
		Game:  g,
		Clock: clock,
		OnTransition: func(s Snapshot) {
			mu.Lock()
			seen = append(seen, s.State)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctl.Close()
	_ = ctl.Continue()
	_ = ctl.Answer(0)
	_ = ctl.Next()
	clock.Advance(DefaultQuizResultDelay)
	ctl.dispatch.flush()
	g.report(100)
	clock.Advance(DefaultGameCelebrationDelay)
	ctl.dispatch.flush()

	mu.Lock()
	defer mu.Unlock()
	if want := []State{StateGame, StateComplete}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("transitions: want=%v got=%v", want, seen)
	}
}
