package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime"
	"github.com/yungbote/learn2go-backend/internal/realtime/bus"
)

// TelemetryService persists learning events and mirrors them onto the realtime bus for live
// admin dashboards.
type TelemetryService interface {
	Record(ctx context.Context, ev flow.Event) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*types.UserEvent, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error)
}

type telemetryService struct {
	db     *gorm.DB
	log    *logger.Logger
	events repos.UserEventRepo
	bus    bus.Bus
}

// NewTelemetryService accepts a nil bus when live streaming is off.
func NewTelemetryService(db *gorm.DB, baseLog *logger.Logger, events repos.UserEventRepo, b bus.Bus) TelemetryService {
	return &telemetryService{
		db:     db,
		log:    baseLog.With("service", "TelemetryService"),
		events: events,
		bus:    b,
	}
}

// Record fails only when the row cannot be stored; a failed publish is logged.
func (s *telemetryService) Record(ctx context.Context, ev flow.Event) error {
	if !ev.Type.Valid() {
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.UserID == uuid.Nil {
		return fmt.Errorf("event without user")
	}
	occurred := ev.OccurredAt.UTC()
	if ev.OccurredAt.IsZero() {
		occurred = time.Now().UTC()
	}
	row := &types.UserEvent{
		UserID:     ev.UserID,
		VisitID:    optionalID(ev.VisitID),
		LessonID:   optionalID(ev.LessonID),
		Type:       ev.Type,
		Data:       datatypes.JSONMap(ev.Payload),
		OccurredAt: occurred,
	}
	if _, err := s.events.Create(ctx, nil, []*types.UserEvent{row}); err != nil {
		return fmt.Errorf("store %s event: %w", ev.Type, err)
	}
	observability.Current().ObserveLearningEvent(string(ev.Type), ev.Payload)

	if s.bus != nil {
		msg := realtime.SSEMessage{
			Channel: realtime.AdminTelemetryChannel,
			Event:   realtime.SSEEventTelemetryRecorded,
			Data:    row,
		}
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("publish telemetry failed", "type", ev.Type, "error", err)
		}
	}
	return nil
}

func (s *telemetryService) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*types.UserEvent, error) {
	return s.events.ListByVisit(ctx, nil, visitID)
}

func (s *telemetryService) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.UserEvent, error) {
	return s.events.ListByUser(ctx, nil, userID, limit)
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
