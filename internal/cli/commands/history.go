package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOutput is the JSON form of a single save with its statements.
type HistoryOutput struct {
	Save    *state.Save         `json:"save"`
	Actions []*state.SaveAction `json:"actions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [save-id]",
		Short: "List recorded saves",
		Long: `List saves recorded by "leapdb apply" and "leapdb edit", most recent first.
Pass a save id to list the statements that save ran.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenState()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				save, err := store.GetSave(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				actions, err := store.ListActions(cmd.Context(), save.ID)
				if err != nil {
					return err
				}
				return renderSave(cc.Renderer, save, actions)
			}

			saves, err := store.ListSaves(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderSaves(cc.Renderer, saves)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of saves to list (0 for all)")
	return cmd
}

func renderSaves(r *output.Renderer, saves []*state.Save) error {
	if r.EffectiveMode() == output.ModeJSON {
		if saves == nil {
			saves = []*state.Save{}
		}
		return r.JSON(saves)
	}
	if len(saves) == 0 {
		r.Muted("No saves recorded.")
		return nil
	}

	r.Header(1, "save history")
	rows := make([][]string, 0, len(saves))
	for _, s := range saves {
		rows = append(rows, []string{
			s.ID,
			s.Connection,
			statusLabel(r, string(s.Status)),
			s.StartedAt.Local().Format(time.DateTime),
			saveDuration(s),
			firstLine(s.Error),
		})
	}
	r.Table([]string{"ID", "Connection", "Status", "Started", "Duration", "Error"}, rows)
	return nil
}

func renderSave(r *output.Renderer, save *state.Save, actions []*state.SaveAction) error {
	if r.EffectiveMode() == output.ModeJSON {
		if actions == nil {
			actions = []*state.SaveAction{}
		}
		return r.JSON(HistoryOutput{Save: save, Actions: actions})
	}

	r.Header(1, "save "+save.ID)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Connection", save.Connection))
		r.Println(output.FormatKeyValue("Status", string(save.Status)))
		r.Println(output.FormatKeyValue("Started", save.StartedAt.Local().Format(time.DateTime)))
		if save.Error != "" {
			r.Println(output.FormatKeyValue("Error", firstLine(save.Error)))
		}
		r.Println()
	} else {
		r.Printf("%s on %s, started %s\n", statusLabel(r, string(save.Status)), save.Connection,
			save.StartedAt.Local().Format(time.DateTime))
		if save.Error != "" {
			r.Println(r.Styles().Error.Render(save.Error))
		}
	}

	if len(actions) == 0 {
		r.Muted("No statements recorded.")
		return nil
	}
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{
			strconv.Itoa(a.Seq),
			statusLabel(r, string(a.Status)),
			a.Command,
			a.Script,
			firstLine(a.Error),
		})
	}
	r.Table([]string{"#", "Status", "Command", "Statement", "Error"}, rows)
	return nil
}

func statusLabel(r *output.Renderer, status string) string {
	if r.EffectiveMode() != output.ModeText {
		return status
	}
	styles := r.Styles()
	switch status {
	case string(state.SaveCompleted), string(state.ActionExecuted):
		return styles.Success.Render(status)
	// Failed saves and failed actions share the "failed" label.
	case string(state.SaveFailed):
		return styles.Error.Render(status)
	default:
		return styles.Warning.Render(status)
	}
}

func saveDuration(s *state.Save) string {
	if s.CompletedAt == nil {
		return "-"
	}
	return s.CompletedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
