package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"golang.org/x/sync/errgroup"

	"github.com/spf13/cobra"
)

// PingResult is the outcome of pinging one connection.
type PingResult struct {
	Connection string        `json:"connection"`
	Type       string        `json:"type"`
	OK         bool          `json:"ok"`
	Latency    time.Duration `json:"latency_ns"`
	Error      string        `json:"error,omitempty"`
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping [connection...]",
		Short: "Check that connections are reachable",
		Long: `Connect to every configured connection, or the ones named, in parallel
and report which respond.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			names := args
			if len(names) == 0 {
				names = cc.Cfg.ConnectionNames()
			}
			if len(names) == 0 {
				cc.Renderer.Warning("no connections configured")
				return nil
			}

			results := cc.ping(cmd.Context(), names, timeout)
			if err := renderPing(cc.Renderer, results); err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if !res.OK {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d connections failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout per connection")
	return cmd
}

// ping checks names concurrently. Failures are reported in the results, not
// as an error, so one unreachable database does not cancel the others.
func (c *CommandContext) ping(ctx context.Context, names []string, timeout time.Duration) []PingResult {
	results := make([]PingResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, name := range names {
		g.Go(func() error {
			results[i] = c.pingOne(gctx, name, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *CommandContext) pingOne(ctx context.Context, name string, timeout time.Duration) PingResult {
	res := PingResult{Connection: name}
	conn, ok := c.Cfg.Connections[name]
	if !ok {
		res.Error = "unknown connection"
		return res
	}
	res.Type = conn.Type

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	adp, err := openAdapter(ctx, name, conn, c.Logger)
	if err == nil {
		err = adp.Ping(ctx)
		_ = adp.Close()
	}
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}

func renderPing(r *output.Renderer, results []PingResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	styles := r.Styles()
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "ok"
		detail := res.Latency.Round(time.Millisecond).String()
		if !res.OK {
			status = "failed"
			detail = firstLine(res.Error)
		}
		if r.EffectiveMode() == output.ModeText {
			if res.OK {
				status = styles.StatusSuccess.String() + " " + status
			} else {
				status = styles.StatusFailed.String() + " " + status
			}
		}
		rows = append(rows, []string{res.Connection, res.Type, status, detail})
	}
	r.Table([]string{"Connection", "Type", "Status", "Detail"}, rows)
	return nil
}
