package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	learningEvents *CounterVec
	quizResults    *CounterVec
	quizScores     *HistogramVec
	gameScores     *HistogramVec
	activeVisits   *Gauge
	closedVisits   *CounterVec
	bestEffortFail *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current is nil until Init ran with metrics enabled. Every method is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(enabled bool, scrapeInterval time.Duration) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(scrapeInterval)
	})
	return instance
}

func NewMetrics(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	scoreBuckets := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	return &Metrics{
		apiRequests: NewCounterVec("l2g_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"l2g_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("l2g_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("l2g_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("l2g_api_requests_error_total", "API requests answered with a 5xx status."),

		learningEvents: NewCounterVec("l2g_learning_events_total", "Recorded learning events by type.", []string{"type"}),
		quizResults:    NewCounterVec("l2g_quiz_results_total", "Submitted quiz attempts by outcome.", []string{"outcome"}),
		quizScores:     NewHistogramVec("l2g_quiz_score", "Quiz scores in percent.", nil, scoreBuckets),
		gameScores:     NewHistogramVec("l2g_game_score", "Mini-game scores by game kind.", []string{"kind"}, scoreBuckets),
		activeVisits:   NewGauge("l2g_visits_active", "Lesson visits currently hosted by this instance."),
		closedVisits:   NewCounterVec("l2g_visits_closed_total", "Closed lesson visits by reason.", []string{"reason"}),
		bestEffortFail: NewCounterVec("l2g_best_effort_failures_total", "Progress and telemetry writes that failed and were dropped.", []string{"op"}),

		dbStats:   NewGaugeVec("l2g_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("l2g_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("l2g_redis_ping_seconds", "Latency of the last redis ping."),

		scrapeInterval: scrapeInterval,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiReqTotal,
		m.apiReqError,
		m.learningEvents,
		m.quizResults,
		m.quizScores,
		m.gameScores,
		m.activeVisits,
		m.closedVisits,
		m.bestEffortFail,
		m.dbStats,
		m.redisUp,
		m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = apiLabels(method, route, status)
	m.countAPI(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

// CountAPI records a request without a latency sample, for long-lived responses like SSE.
func (m *Metrics) CountAPI(method, route, status string) {
	if m == nil {
		return
	}
	m.countAPI(apiLabels(method, route, status))
}

func (m *Metrics) countAPI(method, route, status string) {
	m.apiRequests.Inc(method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func apiLabels(method, route, status string) (string, string, string) {
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	return method, route, status
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveLearningEvent counts a recorded event and, for quiz and game events, the score it carries.
func (m *Metrics) ObserveLearningEvent(eventType string, payload map[string]any) {
	if m == nil {
		return
	}
	m.learningEvents.Inc(eventType)
	switch eventType {
	case "quiz_complete":
		outcome := "failed"
		if passed, _ := payload["passed"].(bool); passed {
			outcome = "passed"
		}
		m.quizResults.Inc(outcome)
		if score, ok := numeric(payload["score"]); ok {
			m.quizScores.Observe(score)
		}
	case "game_play":
		kind, _ := payload["kind"].(string)
		if kind == "" {
			kind = "unknown"
		}
		if score, ok := numeric(payload["score"]); ok {
			m.gameScores.Observe(score, kind)
		}
	}
}

func (m *Metrics) SetActiveVisits(n int) {
	if m == nil {
		return
	}
	m.activeVisits.Set(float64(n))
}

func (m *Metrics) IncVisitClosed(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.closedVisits.Inc(reason)
}

func (m *Metrics) IncBestEffortFailure(op string) {
	if m == nil {
		return
	}
	m.bestEffortFail.Inc(op)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
