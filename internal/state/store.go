// Package state records save history: every save attempt and each statement
// it executed, in a local SQLite database.
package state

import (
	"context"
	"time"
)

// SaveStatus is the outcome of a save attempt.
type SaveStatus string

// Save statuses.
const (
	SaveRunning   SaveStatus = "running"
	SaveCompleted SaveStatus = "completed"
	SaveFailed    SaveStatus = "failed"
)

// ActionStatus is the outcome of a single persist action.
type ActionStatus string

// Action statuses.
const (
	ActionExecuted ActionStatus = "executed"
	ActionFailed   ActionStatus = "failed"
	// ActionSkipped marks an optional action whose failure did not stop the save.
	ActionSkipped ActionStatus = "skipped"
)

// Save is one recorded save attempt against a connection.
type Save struct {
	ID          string     `json:"id"`
	Connection  string     `json:"connection"`
	Status      SaveStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// SaveAction is one statement a save executed or tried to execute.
type SaveAction struct {
	ID         string       `json:"id"`
	SaveID     string       `json:"save_id"`
	Seq        int          `json:"seq"`
	Command    string       `json:"command"`
	Title      string       `json:"title"`
	Script     string       `json:"script"`
	Type       string       `json:"type"`
	Status     ActionStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	ExecutedAt time.Time    `json:"executed_at"`
}

// Store persists save history.
type Store interface {
	BeginSave(ctx context.Context, connection string) (*Save, error)
	FinishSave(ctx context.Context, id string, saveErr error) error
	RecordAction(ctx context.Context, action *SaveAction) error
	GetSave(ctx context.Context, id string) (*Save, error)
	ListSaves(ctx context.Context, limit int) ([]*Save, error)
	ListActions(ctx context.Context, saveID string) ([]*SaveAction, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
