// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-engine"
)

// JSONColumn stores a value of T as a JSON text column.
type JSONColumn[T any] struct {
	V T
}

// Value implements the driver.Valuer interface for database storage.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (c *JSONColumn[T]) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn", value)
	}
	if err := json.Unmarshal(b, &c.V); err != nil {
		return fmt.Errorf("cannot unmarshal JSONColumn: %w", err)
	}
	return nil
}

// GormDataType returns the column type used by migrations.
func (JSONColumn[T]) GormDataType() string {
	return "text"
}

// TaskModel is the database row mirroring a task.
type TaskModel struct {
	ID            string                     `gorm:"primaryKey;size:36"`
	ContextID     string                     `gorm:"size:64;not null;index"`
	State         string                     `gorm:"size:16;not null;index"`
	Kind          string                     `gorm:"size:16;default:task;not null"`
	Status        JSONColumn[a2a.TaskStatus] `gorm:"not null"`
	StatusHistory JSONColumn[[]a2a.TaskStatus]
	History       JSONColumn[[]*a2a.Message]
	Artifacts     JSONColumn[[]*a2a.Artifact]
	CreatedAt     int64 `gorm:"autoCreateTime:nano"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:nano"`
}

// TableName returns the table name for the TaskModel.
func (TaskModel) TableName() string {
	return "tasks"
}

// NewTaskModel converts t into its row.
func NewTaskModel(t *a2a.Task) *TaskModel {
	return &TaskModel{
		ID:            t.ID,
		ContextID:     t.ContextID,
		State:         t.Status.State.String(),
		Kind:          t.Kind,
		Status:        JSONColumn[a2a.TaskStatus]{V: t.Status},
		StatusHistory: JSONColumn[[]a2a.TaskStatus]{V: t.StatusHistory},
		History:       JSONColumn[[]*a2a.Message]{V: t.History},
		Artifacts:     JSONColumn[[]*a2a.Artifact]{V: t.Artifacts},
	}
}

// ToTask converts the row back into a task.
func (m *TaskModel) ToTask() *a2a.Task {
	return &a2a.Task{
		ID:            m.ID,
		ContextID:     m.ContextID,
		Status:        m.Status.V,
		StatusHistory: m.StatusHistory.V,
		History:       m.History.V,
		Artifacts:     m.Artifacts.V,
		Kind:          m.Kind,
	}
}

// String returns a string representation of the TaskModel for debugging.
func (m *TaskModel) String() string {
	return fmt.Sprintf("TaskModel{ID: %s, ContextID: %s, State: %s}", m.ID, m.ContextID, m.State)
}
