// Package commands implements the leapdb subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapdb/internal/cli/config"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/state"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/editor"
	"github.com/spf13/cobra"

	// Adapters register themselves in init().
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the values the root command
// stored in cmd's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// Connection is an open database connection with an editing session.
type Connection struct {
	Name    string
	Adapter adapter.Adapter
	Session *editor.Session
}

// Close closes the underlying adapter.
func (c *Connection) Close() error {
	return c.Adapter.Close()
}

// Connect opens the connection named name, or the configured default when
// name is empty.
func (c *CommandContext) Connect(ctx context.Context, name string) (*Connection, error) {
	if name != "" && c.Cfg.Connection == "" {
		cfg := *c.Cfg
		cfg.Connection = name
		return connect(ctx, &cfg, c.Logger)
	}
	return connect(ctx, c.Cfg, c.Logger)
}

func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Connection, error) {
	name, conn, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	adp, err := openAdapter(ctx, name, conn, logger)
	if err != nil {
		return nil, err
	}
	return &Connection{
		Name:    name,
		Adapter: adp,
		Session: editor.NewSession(adp, logger.With(slog.String("connection", name))),
	}, nil
}

func openAdapter(ctx context.Context, name string, conn config.ConnectionConfig, logger *slog.Logger) (adapter.Adapter, error) {
	acfg := conn.AdapterConfig()
	logger.Debug("connecting", slog.String("connection", name), slog.String("type", acfg.Type))
	adp, err := adapter.Open(ctx, acfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", name, err)
	}
	return adp, nil
}

// OpenState opens and migrates the save history database.
func (c *CommandContext) OpenState() (*state.SQLiteStore, error) {
	dir := filepath.Dir(c.Cfg.StatePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
