package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassNotFound
	ClassConflict
	ClassRetryable
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNotFound:
		return "not_found"
	case ClassConflict:
		return "conflict"
	case ClassRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// Classify buckets storage failures so callers can decide whether to surface, retry or swallow.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ClassNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ClassConflict
	case errors.Is(err, context.DeadlineExceeded):
		return ClassRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return ClassConflict // unique_violation
		case "40001", "40P01", "55P03", "57P01":
			return ClassRetryable // serialization/deadlock/lock_not_available/admin_shutdown
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return ClassConflict
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "broken pipe"):
		return ClassRetryable
	}
	return ClassUnknown
}
