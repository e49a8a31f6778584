// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	a2a "github.com/go-a2a/a2a-engine"
)

// DatabaseTaskStore mirrors task states into a database using GORM.
// It is a [Mirror]: the in-memory store decides, the database records.
type DatabaseTaskStore struct {
	db          *gorm.DB
	createTable bool
}

var _ Mirror = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB          *gorm.DB
	CreateTable bool // Whether to create the table if it doesn't exist
}

// NewDatabaseTaskStore creates a new DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &DatabaseTaskStore{
		db:          config.DB,
		createTable: config.CreateTable,
	}, nil
}

// OpenSQLite opens a SQLite database at dsn. ":memory:" yields a private
// in-memory database served by a single connection.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Every connection to a private in-memory database sees a distinct
	// database, so those are pinned to one connection. File databases keep a
	// pool and let SQLite's busy timeout arbitrate writers.
	if isMemoryDSN(dsn) {
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

// Initialize prepares the database for use.
func (s *DatabaseTaskStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&TaskModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

// Save upserts the row of task.
func (s *DatabaseTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(NewTaskModel(task)).Error
	if err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var model TaskModel
	if err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, a2a.TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return model.ToTask(), nil
}

// ListByContext retrieves the tasks of a context in creation order.
func (s *DatabaseTaskStore) ListByContext(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	if contextID == "" {
		return nil, fmt.Errorf("context ID cannot be empty")
	}

	var models []TaskModel
	err := s.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, NewTaskStoreError("list_by_context", contextID, err)
	}
	return toTasks(models), nil
}

// ListByState retrieves the tasks currently in state.
func (s *DatabaseTaskStore) ListByState(ctx context.Context, state a2a.TaskState) ([]*a2a.Task, error) {
	var models []TaskModel
	err := s.db.WithContext(ctx).
		Where("state = ?", state.String()).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, NewTaskStoreError("list_by_state", "", err)
	}
	return toTasks(models), nil
}

// Count returns the number of mirrored tasks.
func (s *DatabaseTaskStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&TaskModel{}).Count(&n).Error; err != nil {
		return 0, NewTaskStoreError("count", "", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *DatabaseTaskStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toTasks(models []TaskModel) []*a2a.Task {
	tasks := make([]*a2a.Task, len(models))
	for i := range models {
		tasks[i] = models[i].ToTask()
	}
	return tasks
}
