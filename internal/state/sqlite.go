package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ErrNotOpened is returned by store operations before Open.
var ErrNotOpened = errors.New("database not opened")

// ErrSaveNotFound is returned when a save id is unknown.
var ErrSaveNotFound = errors.New("save not found")

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore creates a new, unopened store.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open opens the database at path. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	s.db = db
	s.path = path
	s.logger.Debug("state opened", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// BeginSave records a new running save for connection.
func (s *SQLiteStore) BeginSave(ctx context.Context, connection string) (*Save, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	save := &Save{
		ID:         generateID(),
		Connection: connection,
		Status:     SaveRunning,
		StartedAt:  s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saves (id, connection, status, started_at) VALUES (?, ?, ?, ?)`,
		save.ID, save.Connection, string(save.Status), save.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to begin save: %w", err)
	}
	return save, nil
}

// FinishSave completes save id. A nil saveErr marks it completed, otherwise failed.
func (s *SQLiteStore) FinishSave(ctx context.Context, id string, saveErr error) error {
	if s.db == nil {
		return ErrNotOpened
	}
	status := SaveCompleted
	var msg sql.NullString
	if saveErr != nil {
		status = SaveFailed
		msg = sql.NullString{String: saveErr.Error(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE saves SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), s.now(), msg, id)
	if err != nil {
		return fmt.Errorf("failed to finish save: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, id)
	}
	return nil
}

// RecordAction stores action. ID and ExecutedAt are filled in when empty.
func (s *SQLiteStore) RecordAction(ctx context.Context, action *SaveAction) error {
	if s.db == nil {
		return ErrNotOpened
	}
	if action.ID == "" {
		action.ID = generateID()
	}
	if action.ExecutedAt.IsZero() {
		action.ExecutedAt = s.now()
	}
	var msg sql.NullString
	if action.Error != "" {
		msg = sql.NullString{String: action.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO save_actions
			(id, save_id, seq, command, title, script, type, status, error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		action.ID, action.SaveID, action.Seq, action.Command, action.Title,
		action.Script, action.Type, string(action.Status), msg, action.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

const saveColumns = `id, connection, status, started_at, completed_at, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanSave(row scanner) (*Save, error) {
	var (
		save      Save
		status    string
		completed sql.NullTime
		msg       sql.NullString
	)
	if err := row.Scan(&save.ID, &save.Connection, &status, &save.StartedAt, &completed, &msg); err != nil {
		return nil, err
	}
	save.Status = SaveStatus(status)
	if completed.Valid {
		t := completed.Time
		save.CompletedAt = &t
	}
	save.Error = msg.String
	return &save, nil
}

// GetSave returns the save with id.
func (s *SQLiteStore) GetSave(ctx context.Context, id string) (*Save, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+saveColumns+` FROM saves WHERE id = ?`, id)
	save, err := scanSave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get save: %w", err)
	}
	return save, nil
}

// ListSaves returns the most recent saves first. limit <= 0 returns all.
func (s *SQLiteStore) ListSaves(ctx context.Context, limit int) ([]*Save, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+saveColumns+` FROM saves ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var saves []*Save
	for rows.Next() {
		save, err := scanSave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		saves = append(saves, save)
	}
	return saves, rows.Err()
}

// ListActions returns the actions of saveID in execution order.
func (s *SQLiteStore) ListActions(ctx context.Context, saveID string) ([]*SaveAction, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, save_id, seq, command, title, script, type, status, error, executed_at
		FROM save_actions WHERE save_id = ? ORDER BY seq`, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*SaveAction
	for rows.Next() {
		var (
			a      SaveAction
			status string
			msg    sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.SaveID, &a.Seq, &a.Command, &a.Title, &a.Script,
			&a.Type, &status, &msg, &a.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		a.Status = ActionStatus(status)
		a.Error = msg.String
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
