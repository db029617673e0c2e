package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdb/internal/changeset"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/editor"
	"github.com/spf13/cobra"
)

// PlanOutput is the JSON form of a plan.
type PlanOutput struct {
	Connection string          `json:"connection"`
	Statements []PlanStatement `json:"statements"`
}

// PlanStatement is one pending statement.
type PlanStatement struct {
	Command string `json:"command"`
	Title   string `json:"title"`
	Script  string `json:"script"`
	Type    string `json:"type"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <changeset.yaml>",
		Short: "Show the statements a changeset would run",
		Long: `Replay a changeset as edits and print the merged statements without
changing the database. Only table metadata is read.

Edits on the same object are merged first: a column that is added and then
renamed produces a single ADD COLUMN, and a table created and then dropped
produces nothing.`,
		Example: `  # Preview a changeset against the default connection
  leapdb plan changes/0001_users.yaml

  # Preview against another connection, as JSON
  leapdb plan changes/0001_users.yaml -c staging -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			conn, err := cc.prepareChangeset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			return renderPlan(cc.Renderer, conn.Name, conn.Session.Plan())
		},
	}
}

// prepareChangeset loads path, connects to its connection and replays it.
func (c *CommandContext) prepareChangeset(ctx context.Context, path string) (*Connection, error) {
	cs, err := changeset.Load(path)
	if err != nil {
		return nil, err
	}
	conn, err := c.Connect(ctx, cs.Connection)
	if err != nil {
		return nil, err
	}
	if err := cs.Apply(ctx, conn.Session); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.Logger.Debug("changeset replayed",
		slog.String("path", path),
		slog.Int("operations", len(cs.Operations)),
		slog.Int("commands", len(conn.Session.Commands().Commands())))
	return conn, nil
}

func planOutput(connection string, pending []command.PendingAction) PlanOutput {
	out := PlanOutput{Connection: connection, Statements: make([]PlanStatement, 0, len(pending))}
	for _, p := range pending {
		out.Statements = append(out.Statements, PlanStatement{
			Command: p.Command.Title(),
			Title:   p.Action.Title,
			Script:  p.Action.Script,
			Type:    p.Action.Type.String(),
		})
	}
	return out
}

func countExecutable(pending []command.PendingAction) int {
	n := 0
	for _, p := range pending {
		if p.Action.Type != command.ActionComment {
			n++
		}
	}
	return n
}

func renderPlan(r *output.Renderer, connection string, pending []command.PendingAction) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(planOutput(connection, pending))
	}
	if len(pending) == 0 {
		r.Muted("No changes.")
		return nil
	}

	r.Header(1, "pending changes")
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Connection", connection))
		r.Println(output.FormatKeyValue("Statements", fmt.Sprintf("%d", countExecutable(pending))))
		r.Println()
	}
	r.SQL(editor.FormatScript(pending))
	if r.EffectiveMode() == output.ModeText {
		r.Muted(fmt.Sprintf("%d statements on %s", countExecutable(pending), connection))
	}
	return nil
}
