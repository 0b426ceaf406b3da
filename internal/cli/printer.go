package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/rileyhilliard/homestats/internal/ui"
	"github.com/rileyhilliard/homestats/internal/util"
)

var (
	printerName       string
	printerEntityID   string
	printerAccessCode string
	printerAMSID      string
)

var printerCmd = &cobra.Command{
	Use:     "printer",
	Aliases: []string{"printers"},
	Short:   "Manage 3D printers shown on the dashboard",
	Long: `Printers are read from Home Assistant (Bambu Lab integration). Each entry
names the entity prefix the integration uses, e.g. x1c_00m09a123456789 for
sensor.x1c_00m09a123456789_print_progress.`,
}

var printerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a printer",
	Long: `Add a printer by name and Home Assistant entity prefix. Without flags
the fields are prompted for.

Examples:
  homestats printer add --name "X1 Carbon" --entity x1c_00m09a123456789 --access-code 12345678`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if printerName == "" || printerEntityID == "" {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New(errors.ErrConfig,
					"--name and --entity are required",
					"Run 'homestats printer add --name <name> --entity <prefix>'")
			}
			if err := promptPrinter(); err != nil {
				return err
			}
		}

		p := store.NewPrinter(strings.TrimSpace(printerName), strings.TrimSpace(printerEntityID), printerAccessCode, printerAMSID)
		return withApp(cmd.Context(), func(a *app.App) error {
			if _, ok := lookupPrinter(a.Store.Current().Printers, p.Name); ok {
				return errors.New(errors.ErrConfig,
					fmt.Sprintf("Printer '%s' already exists", p.Name),
					"Pick another name or remove it first with 'homestats printer remove'")
			}
			if err := a.Store.Update(cmd.Context(), func(c *store.Config) {
				c.Printers = append(c.Printers, p)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added printer '%s'\n", ui.SymbolSuccess, p.Name)
			return nil
		})
	},
}

var printerRemoveCmd = &cobra.Command{
	Use:     "remove <name|id>",
	Aliases: []string{"rm"},
	Short:   "Remove a printer",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			printers := a.Store.Current().Printers
			idx, ok := lookupPrinter(printers, args[0])
			if !ok {
				names := make([]string, 0, len(printers))
				for _, p := range printers {
					names = append(names, p.Name)
				}
				suggestion := "No printers are configured"
				if len(names) > 0 {
					suggestion = "Configured printers: " + strings.Join(names, ", ")
				}
				return errors.New(errors.ErrConfig,
					fmt.Sprintf("Printer '%s' not found", args[0]), suggestion)
			}
			id := printers[idx].ID
			if err := a.Store.Update(cmd.Context(), func(c *store.Config) {
				kept := c.Printers[:0]
				for _, p := range c.Printers {
					if p.ID != id {
						kept = append(kept, p)
					}
				}
				c.Printers = kept
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Removed printer '%s'\n", ui.SymbolSuccess, printers[idx].Name)
			return nil
		})
	},
}

var printerListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured printers",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			printers := a.Store.Current().Printers
			if MachineMode() {
				out := make([]store.PrinterConfig, len(printers))
				for i, p := range printers {
					p.AccessCode = util.MaskSecret(p.AccessCode)
					out[i] = p
				}
				return WriteJSONSuccess(cmd.OutOrStdout(), out)
			}
			if len(printers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No printers configured. Add one with 'homestats printer add'.")
				return nil
			}
			rows := make([][]string, 0, len(printers))
			for _, p := range printers {
				rows = append(rows, []string{p.Name, p.PrinterID, p.AMSID, p.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n\n", len(printers), util.Pluralize(len(printers), "printer", "printers"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSimpleTable([]ui.TableColumn{
				{Title: "NAME", Width: 20},
				{Title: "ENTITY PREFIX", Width: 28},
				{Title: "AMS", Width: 8},
				{Title: "ID", Width: 36},
			}, rows))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(printerCmd)
	printerCmd.AddCommand(printerAddCmd, printerRemoveCmd, printerListCmd)

	printerAddCmd.Flags().StringVar(&printerName, "name", "", "display name")
	printerAddCmd.Flags().StringVar(&printerEntityID, "entity", "", "Home Assistant entity prefix")
	printerAddCmd.Flags().StringVar(&printerAccessCode, "access-code", "", "LAN access code")
	printerAddCmd.Flags().StringVar(&printerAMSID, "ams", "", "AMS unit id")
}

// lookupPrinter matches by id, name (case-insensitive) or entity prefix.
func lookupPrinter(printers []store.PrinterConfig, key string) (int, bool) {
	for i, p := range printers {
		if p.ID == key || strings.EqualFold(p.Name, key) || p.PrinterID == key {
			return i, true
		}
	}
	return -1, false
}

func promptPrinter() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Printer name").
				Placeholder("X1 Carbon").
				Value(&printerName).
				Validate(required("name")),
			huh.NewInput().
				Title("Entity prefix").
				Description("The part between sensor. and _print_progress").
				Value(&printerEntityID).
				Validate(required("entity prefix")),
			huh.NewInput().
				Title("Access code").
				EchoMode(huh.EchoModePassword).
				Value(&printerAccessCode),
			huh.NewInput().
				Title("AMS id (optional)").
				Value(&printerAMSID),
		),
	)
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your input",
			"Try again or pass --name and --entity")
	}
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
