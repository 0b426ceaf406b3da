package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <source>",
	Short: "Fetch one source and print its snapshot",
	Long: fmt.Sprintf(`Run one fetch cycle for a source and print the raw snapshot as JSON.

Sources: %s

Examples:
  homestats snapshot proxmox
  homestats snapshot media --json`, strings.Join(app.Sources, ", ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: app.Sources,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			if err := a.FetchOnce(ctx, name); err != nil {
				return err
			}
			snap, err := a.Status(name)
			if err != nil {
				return err
			}
			if MachineMode() {
				return WriteJSONSuccess(cmd.OutOrStdout(), snap)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
