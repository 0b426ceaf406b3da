package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the config store with its replica",
	Long: `The service configuration is kept locally and mirrored to a replica
(Redis or Postgres, see replica in .homestats.yaml). These commands force a
round trip instead of waiting for a change notification.`,
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Load the replica's copy, replacing the local one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := requireReplica(a); err != nil {
				return err
			}
			if err := a.Store.Refresh(cmd.Context()); err != nil {
				return err
			}
			return reportSync(cmd, a, "Pulled configuration from replica")
		})
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Write the local copy to the replica",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := requireReplica(a); err != nil {
				return err
			}
			if err := a.Store.Push(cmd.Context()); err != nil {
				return err
			}
			return reportSync(cmd, a, "Pushed configuration to replica")
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncPullCmd, syncPushCmd)
}

func requireReplica(a *app.App) error {
	if a.Settings.Replica.Backend == "" || a.Settings.Replica.Backend == "none" {
		return errors.New(errors.ErrConfig,
			"No replica is configured",
			"Set replica.backend to redis or postgres in .homestats.yaml")
	}
	return nil
}

func reportSync(cmd *cobra.Command, a *app.App, done string) error {
	status := a.Store.Status()
	if MachineMode() {
		return WriteJSONSuccess(cmd.OutOrStdout(), StatusReport{Sync: status, LastSync: a.Store.LastSync()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.SymbolSuccess, done)
	if last := a.Store.LastSync(); !last.IsZero() {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Muted("  "+status.String()+" at "+last.Format(time.RFC3339)))
	}
	return nil
}
