package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

const maxEventPage = 50000

type UserEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.UserEvent) ([]*types.UserEvent, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserEvent, error)
	ListByVisit(ctx context.Context, tx *gorm.DB, visitID uuid.UUID) ([]*types.UserEvent, error)
	ListBetween(ctx context.Context, tx *gorm.DB, from, to time.Time, limit int) ([]*types.UserEvent, error)
}

type userEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserEventRepo(db *gorm.DB, baseLog *logger.Logger) UserEventRepo {
	return &userEventRepo{db: db, log: baseLog.With("repo", "UserEventRepo")}
}

func (r *userEventRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *userEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.UserEvent) ([]*types.UserEvent, error) {
	if len(events) == 0 {
		return []*types.UserEvent{}, nil
	}
	if err := r.tx(tx).WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *userEventRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	if err := r.tx(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userEventRepo) ListByVisit(ctx context.Context, tx *gorm.DB, visitID uuid.UUID) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	if visitID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(tx).WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("occurred_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userEventRepo) ListBetween(ctx context.Context, tx *gorm.DB, from, to time.Time, limit int) ([]*types.UserEvent, error) {
	if limit <= 0 || limit > maxEventPage {
		limit = maxEventPage
	}
	var out []*types.UserEvent
	if err := r.tx(tx).WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at < ?", from.UTC(), to.UTC()).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
