package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

const (
	DefaultAnalyticsWindow = 30 * 24 * time.Hour
	maxAnalyticsEvents     = 50000
	dayLayout              = "2006-01-02"
)

type LessonStats struct {
	LessonID       uuid.UUID `json:"lesson_id"`
	Title          string    `json:"title"`
	Locale         string    `json:"locale"`
	Learners       int       `json:"learners"`
	Attempts       int       `json:"attempts"`
	Completions    int       `json:"completions"`
	CompletionRate float64   `json:"completion_rate"`
	AverageScore   float64   `json:"average_score"`
	AverageGame    *float64  `json:"average_game_score,omitempty"`
}

type DailyBucket struct {
	Day    string                      `json:"day"`
	Counts map[telemetry.EventType]int `json:"counts"`
	Total  int                         `json:"total"`
}

type AnalyticsReport struct {
	From          time.Time                   `json:"from"`
	To            time.Time                   `json:"to"`
	TotalLessons  int                         `json:"total_lessons"`
	ActiveUsers   int                         `json:"active_users"`
	EventsByType  map[telemetry.EventType]int `json:"events_by_type"`
	Daily         []DailyBucket               `json:"daily"`
	Lessons       []LessonStats               `json:"lessons"`
	EventsTrimmed bool                        `json:"events_trimmed"`
}

// AnalyticsService aggregates progress and telemetry for the admin dashboard.
type AnalyticsService interface {
	Report(ctx context.Context, from, to time.Time) (*AnalyticsReport, error)
	WriteCSV(w io.Writer, report *AnalyticsReport) error
}

type analyticsService struct {
	db       *gorm.DB
	log      *logger.Logger
	lessons  repos.LessonRepo
	progress repos.LessonProgressRepo
	events   repos.UserEventRepo
}

func NewAnalyticsService(db *gorm.DB, baseLog *logger.Logger, lessons repos.LessonRepo, progress repos.LessonProgressRepo, events repos.UserEventRepo) AnalyticsService {
	return &analyticsService{
		db:       db,
		log:      baseLog.With("service", "AnalyticsService"),
		lessons:  lessons,
		progress: progress,
		events:   events,
	}
}

// Report covers [from, to). A zero to means now; a zero from means DefaultAnalyticsWindow
// before to.
func (s *analyticsService) Report(ctx context.Context, from, to time.Time) (*AnalyticsReport, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-DefaultAnalyticsWindow)
	}
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, apierr.BadRequest("invalid_window", fmt.Errorf("analytics window is empty: from %s to %s", from.Format(time.RFC3339), to.Format(time.RFC3339)))
	}

	var (
		lessons  []*types.Lesson
		progress []*types.LessonProgress
		events   []*types.UserEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lessons, err = s.lessons.ListCatalog(gctx, nil, repos.CatalogFilter{IncludeDrafts: true, AllRegions: true})
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progress.ListUpdatedBetween(gctx, nil, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.events.ListBetween(gctx, nil, from, to, maxAnalyticsEvents)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	report := Aggregate(lessons, progress, events)
	report.From, report.To = from, to
	report.EventsTrimmed = len(events) >= maxAnalyticsEvents
	if report.EventsTrimmed {
		s.log.Warn("analytics event window truncated", "limit", maxAnalyticsEvents)
	}
	return report, nil
}

// Aggregate groups rows into per-lesson stats, event counts and daily buckets. Lessons are
// ordered by learners desc, then title; days ascending.
func Aggregate(lessons []*types.Lesson, progress []*types.LessonProgress, events []*types.UserEvent) *AnalyticsReport {
	report := &AnalyticsReport{
		TotalLessons: len(lessons),
		EventsByType: make(map[telemetry.EventType]int, len(telemetry.AllEventTypes)),
	}
	for _, t := range telemetry.AllEventTypes {
		report.EventsByType[t] = 0
	}

	type acc struct {
		stats     LessonStats
		scoreSum  int
		gameSum   int
		gameCount int
	}
	byLesson := make(map[uuid.UUID]*acc, len(lessons))
	order := make([]uuid.UUID, 0, len(lessons))
	get := func(id uuid.UUID) *acc {
		a, ok := byLesson[id]
		if !ok {
			a = &acc{stats: LessonStats{LessonID: id}}
			byLesson[id] = a
			order = append(order, id)
		}
		return a
	}
	for _, l := range lessons {
		a := get(l.ID)
		a.stats.Title = l.Title
		a.stats.Locale = l.Locale
	}

	users := make(map[uuid.UUID]bool)
	for _, p := range progress {
		a := get(p.LessonID)
		a.stats.Learners++
		a.stats.Attempts += p.Attempts
		a.scoreSum += p.Score
		if p.Completed {
			a.stats.Completions++
		}
		if p.GameScore != nil {
			a.gameSum += *p.GameScore
			a.gameCount++
		}
		users[p.UserID] = true
	}

	days := make(map[string]*DailyBucket)
	for _, ev := range events {
		report.EventsByType[ev.Type]++
		users[ev.UserID] = true
		day := ev.OccurredAt.UTC().Format(dayLayout)
		b, ok := days[day]
		if !ok {
			b = &DailyBucket{Day: day, Counts: make(map[telemetry.EventType]int)}
			days[day] = b
		}
		b.Counts[ev.Type]++
		b.Total++
	}
	report.ActiveUsers = len(users)

	report.Lessons = make([]LessonStats, 0, len(order))
	for _, id := range order {
		a := byLesson[id]
		if a.stats.Learners > 0 {
			a.stats.CompletionRate = round2(float64(a.stats.Completions) / float64(a.stats.Learners))
			a.stats.AverageScore = round2(float64(a.scoreSum) / float64(a.stats.Learners))
		}
		if a.gameCount > 0 {
			avg := round2(float64(a.gameSum) / float64(a.gameCount))
			a.stats.AverageGame = &avg
		}
		report.Lessons = append(report.Lessons, a.stats)
	}
	sort.SliceStable(report.Lessons, func(i, j int) bool {
		if report.Lessons[i].Learners != report.Lessons[j].Learners {
			return report.Lessons[i].Learners > report.Lessons[j].Learners
		}
		return report.Lessons[i].Title < report.Lessons[j].Title
	})

	report.Daily = make([]DailyBucket, 0, len(days))
	for _, b := range days {
		report.Daily = append(report.Daily, *b)
	}
	sort.Slice(report.Daily, func(i, j int) bool { return report.Daily[i].Day < report.Daily[j].Day })
	return report
}

var lessonCSVHeader = []string{
	"lesson_id", "title", "locale", "learners", "attempts", "completions",
	"completion_rate", "average_score", "average_game_score",
}

// WriteCSV writes one row per lesson.
func (s *analyticsService) WriteCSV(w io.Writer, report *AnalyticsReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(lessonCSVHeader); err != nil {
		return err
	}
	if report != nil {
		for _, l := range report.Lessons {
			game := ""
			if l.AverageGame != nil {
				game = strconv.FormatFloat(*l.AverageGame, 'f', 2, 64)
			}
			row := []string{
				l.LessonID.String(),
				l.Title,
				l.Locale,
				strconv.Itoa(l.Learners),
				strconv.Itoa(l.Attempts),
				strconv.Itoa(l.Completions),
				strconv.FormatFloat(l.CompletionRate, 'f', 2, 64),
				strconv.FormatFloat(l.AverageScore, 'f', 2, 64),
				game,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
