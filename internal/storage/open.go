package storage

import (
	"context"
	"errors"
	"strings"

	logx "pubsched/pkg/logx"
)

// Store is the persistence API used by the task service.
type Store interface {
	PutTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	// ListTasks returns all tasks ordered by name, then id.
	ListTasks(ctx context.Context) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
