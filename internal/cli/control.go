package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/ui"
	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

// commandTimeout bounds a one-shot device command including the fetch that
// precedes it.
var commandTimeout = 20 * time.Second

var toggleCmd = &cobra.Command{
	Use:   "toggle <entity_id>",
	Short: "Toggle a Home Assistant entity",
	Long: `Toggle a light, switch, fan or other toggleable entity.

Examples:
  homestats toggle light.desk
  homestats toggle switch.fan`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return runDeviceCommand(cmd, "Toggled "+id, func(ctx context.Context, a *app.App) error {
			if err := a.FetchOnce(ctx, app.SourceHomeAssistant); err != nil {
				return err
			}
			return a.Toggle(ctx, id)
		})
	},
}

var pressCmd = &cobra.Command{
	Use:   "press <button_entity_id>",
	Short: "Press a Home Assistant button entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return runDeviceCommand(cmd, "Pressed "+id, func(ctx context.Context, a *app.App) error {
			return a.Press(ctx, id)
		})
	},
}

var garageCmd = &cobra.Command{
	Use:   "garage",
	Short: "Open or close the garage door",
	Long: `Open the garage door if it is closed, close it if it is open.
The door entity comes from dashboard.garage_door in .homestats.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(cmd, "Garage door", func(ctx context.Context, a *app.App) error {
			if err := a.FetchOnce(ctx, app.SourceDevices); err != nil {
				return err
			}
			return a.ToggleGarage(ctx)
		})
	},
}

var lightsCmd = &cobra.Command{
	Use:   "lights <group> on|off | lights off",
	Short: "Switch a light group, or every light, on or off",
	Long: `Switch the lights in a configured group.

Examples:
  homestats lights office on
  homestats lights kitchen off
  homestats lights off          # every light that is on`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if args[0] != "off" {
				return errors.New(errors.ErrConfig,
					"Missing on/off for light group '"+args[0]+"'",
					"Run 'homestats lights "+args[0]+" on' or 'homestats lights off'")
			}
			return runDeviceCommand(cmd, "All lights off", func(ctx context.Context, a *app.App) error {
				if err := a.FetchOnce(ctx, app.SourceDevices); err != nil {
					return err
				}
				return a.AllLightsOff(ctx)
			})
		}

		group := args[0]
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, fmt.Sprintf("%s %s", group, args[1]), func(ctx context.Context, a *app.App) error {
			if err := a.FetchOnce(ctx, app.SourceDevices); err != nil {
				return err
			}
			return a.SetLightGroup(ctx, group, on)
		})
	},
}

var printerPressCmd = &cobra.Command{
	Use:   "press <printer> <button>",
	Short: "Press a printer control button",
	Long: fmt.Sprintf(`Press pause, resume, stop or refresh on a printer. The printer is
matched by name or by its Home Assistant entity prefix.

Buttons: %v`, viewmodel.PrinterButtons),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, button := args[0], args[1]
		return runDeviceCommand(cmd, target+" "+button, func(ctx context.Context, a *app.App) error {
			p, ok := findPrinter(a, target)
			if !ok {
				return errors.New(errors.ErrConfig,
					"Unknown printer '"+target+"'",
					"Run 'homestats printer list' to see configured printers")
			}
			return a.PressPrinterButton(ctx, p.PrinterID, button)
		})
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd, pressCmd, garageCmd, lightsCmd)
	printerCmd.AddCommand(printerPressCmd)
}

// runDeviceCommand opens the app, runs fn under commandTimeout and reports
// the outcome.
func runDeviceCommand(cmd *cobra.Command, label string, fn func(context.Context, *app.App) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	err := withApp(ctx, func(a *app.App) error {
		return fn(ctx, a)
	})
	if err != nil {
		return err
	}

	if MachineMode() {
		return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"done": label})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.SymbolSuccess, label)
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, errors.New(errors.ErrConfig,
		"Expected 'on' or 'off', got '"+s+"'",
		"Run 'homestats lights <group> on|off'")
}

func findPrinter(a *app.App, target string) (viewmodel.PrinterView, bool) {
	for _, p := range a.Printers() {
		if p.Name == target || p.PrinterID == target || p.ID == target {
			return p, true
		}
	}
	return viewmodel.PrinterView{}, false
}
