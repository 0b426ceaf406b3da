package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/ui"
	"github.com/rileyhilliard/homestats/internal/util"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage which Home Assistant entities are listed",
	Long: `Filters live in .homestats.yaml. Domains are an allow-list (empty means
the built-in set of lights, switches, fans, covers and the like); names are
case-insensitive substrings and an entity matching any one of them is shown
regardless of domain.`,
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the current filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, err := loadSettings()
		if err != nil {
			return err
		}
		if MachineMode() {
			return WriteJSONSuccess(cmd.OutOrStdout(), settings.Filters)
		}
		domains := util.JoinOrDefault(settings.Filters.Domains, "(built-in set)")
		names := util.JoinOrDefault(settings.Filters.Names, "(none)")
		fmt.Fprintf(cmd.OutOrStdout(), "domains: %s\nnames:   %s\n", domains, names)
		return nil
	},
}

var filtersAddDomainCmd = &cobra.Command{
	Use:   "add-domain <domain>",
	Short: "Allow an entity domain such as light or sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return appendFilter(cmd, "filters.domains", strings.ToLower(strings.TrimSpace(args[0])))
	},
}

var filtersAddNameCmd = &cobra.Command{
	Use:   "add-name <substring>",
	Short: "Always show entities whose name contains substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return appendFilter(cmd, "filters.names", strings.TrimSpace(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersListCmd, filtersAddDomainCmd, filtersAddNameCmd)
}

func appendFilter(cmd *cobra.Command, key, value string) error {
	if value == "" {
		return errors.New(errors.ErrConfig, "Filter value is empty", "Pass a non-empty value")
	}
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Couldn't find a settings file",
			"Create one with 'homestats config init'")
	}
	if err := config.AppendToList(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't update "+path, "Check the file is valid YAML")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Added '%s' to %s\n", ui.SymbolSuccess, value, key)
	return nil
}
