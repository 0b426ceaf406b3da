package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/rileyhilliard/homestats/internal/ui"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll every source once and report its health",
	Long: `Run one fetch cycle against every source in parallel and print
which ones answered. Sources without credentials show as skipped.

Examples:
  homestats status
  homestats status --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()
		return withApp(ctx, func(a *app.App) error {
			report := collectStatus(ctx, a)
			if MachineMode() {
				return WriteJSONSuccess(cmd.OutOrStdout(), report)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStatus(report, time.Now()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 30*time.Second, "overall deadline for the fetch cycle")
}

// StatusReport is the --json payload of 'homestats status'.
type StatusReport struct {
	Sources  []app.Health     `json:"sources"`
	Sync     store.SyncStatus `json:"sync"`
	LastSync time.Time        `json:"last_sync,omitempty"`
}

// collectStatus fetches every source once. Failures are recorded on each
// source's health, not returned.
func collectStatus(ctx context.Context, a *app.App) StatusReport {
	var g errgroup.Group
	for _, name := range app.Sources {
		g.Go(func() error {
			_ = a.FetchOnce(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return StatusReport{
		Sources:  a.HealthAll(),
		Sync:     a.Store.Status(),
		LastSync: a.Store.LastSync(),
	}
}

func renderStatus(r StatusReport, now time.Time) string {
	rows := make([]ui.StatusRow, 0, len(r.Sources))
	for _, h := range r.Sources {
		row := ui.StatusRow{Status: h.Status, Name: h.Name, Updated: "-"}
		if !h.Updated.IsZero() {
			row.Updated = ui.FormatElapsed(now.Sub(h.Updated)) + " ago"
		}
		switch h.Status {
		case app.HealthOK:
			row.Detail = "ok"
		case app.HealthFailed:
			row.Detail = h.Error
		case app.HealthNotConfigured:
			row.Detail = "not configured"
		default:
			row.Detail = "no data"
		}
		rows = append(rows, row)
	}

	out := ui.RenderStatusTable(rows)
	out += "\nConfig sync: " + r.Sync.String()
	if !r.LastSync.IsZero() {
		out += ui.Muted(" (last " + r.LastSync.Format(time.RFC3339) + ")")
	}
	return out + "\n"
}
