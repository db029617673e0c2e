package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/state"
	"github.com/leapstack-labs/leapdb/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	DryRun    bool
	NoHistory bool
}

// ApplyOutput is the JSON form of an apply result.
type ApplyOutput struct {
	PlanOutput
	DryRun bool   `json:"dry_run"`
	SaveID string `json:"save_id,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <changeset.yaml>",
		Short: "Run a changeset against the database",
		Long: `Plan a changeset and execute the merged statements.

Each save is recorded in the state database together with every statement
it ran, see "leapdb history". When a statement fails the save stops;
statements that already ran are not repeated by the next apply of the same
session.`,
		Example: `  # Apply a changeset
  leapdb apply changes/0001_users.yaml

  # Show what would run without touching the database
  leapdb apply changes/0001_users.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without executing it")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the save in the state database")

	return cmd
}

func runApply(cmd *cobra.Command, path string, opts *ApplyOptions) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	conn, err := cc.prepareChangeset(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	pending := conn.Session.Plan()
	result := ApplyOutput{PlanOutput: planOutput(conn.Name, pending), DryRun: opts.DryRun}

	if opts.DryRun || !conn.Session.IsDirty() {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(result)
		}
		return renderPlan(r, conn.Name, pending)
	}

	save, err := cc.save(ctx, conn, !opts.NoHistory)
	if save != nil {
		result.SaveID = save.ID
	}
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(result)
	}
	if err := renderPlan(r, conn.Name, pending); err != nil {
		return err
	}
	r.Println()
	r.Success(fmt.Sprintf("Applied %d statements to %s", countExecutable(pending), conn.Name))
	if save != nil {
		r.Muted("Save " + save.ID)
	}
	return nil
}

// save persists the session of conn, recording history when record is set.
// The returned save is non-nil whenever history was recorded, even if the
// save failed.
func (c *CommandContext) save(ctx context.Context, conn *Connection, record bool) (*state.Save, error) {
	cmdCtx := conn.Session.Commands()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider(), conn.Name)
	if err != nil {
		return nil, err
	}
	cmdCtx.AddListener(metrics)
	defer cmdCtx.RemoveListener(metrics)

	var (
		rec     *state.Recorder
		started *state.Save
	)
	if record {
		store, err := c.OpenState()
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()

		rec = state.NewRecorder(store, conn.Name, c.Logger)
		if started, err = rec.Begin(ctx); err != nil {
			return nil, err
		}
		cmdCtx.AddListener(rec)
		defer cmdCtx.RemoveListener(rec)
	}

	start := time.Now()
	saveErr := conn.Session.Save(ctx)
	metrics.RecordSave(ctx, start, saveErr)

	if rec != nil {
		if err := rec.Finish(ctx, saveErr); err != nil {
			c.Logger.Warn("failed to record save history", slog.String("error", err.Error()))
		}
	}
	if saveErr != nil {
		return started, fmt.Errorf("failed to save changes to %s: %w", conn.Name, saveErr)
	}
	c.Logger.Info("changes saved", slog.String("connection", conn.Name), slog.Duration("elapsed", time.Since(start)))
	return started, nil
}
