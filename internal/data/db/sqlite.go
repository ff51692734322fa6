package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

// NewSQLiteService opens an embedded database for local development. path may be ":memory:".
func NewSQLiteService(path string, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")
	if path == "" {
		path = "learn2go.db"
	}
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: UTCNow,
		Logger:  newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection also keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)
	serviceLog.Info("opened sqlite database", "path", path)
	return &Service{db: db, log: serviceLog}, nil
}
