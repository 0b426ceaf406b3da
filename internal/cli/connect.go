package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/rileyhilliard/homestats/internal/ui"
	"github.com/rileyhilliard/homestats/internal/util"
)

var testCmd = &cobra.Command{
	Use:   "test [service...]",
	Short: "Test the connection to configured services",
	Long: `Send one lightweight request to each service and report whether it
answered. With no arguments every configured service is tested.

Examples:
  homestats test
  homestats test proxmox pihole`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var services []store.ServiceType
		for _, arg := range args {
			svc, err := parseService(arg)
			if err != nil {
				return err
			}
			services = append(services, svc)
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			if len(services) == 0 {
				for _, svc := range store.AllServices {
					if a.Store.IsConfigured(svc) {
						services = append(services, svc)
					}
				}
			}
			if len(services) == 0 {
				return errors.New(errors.ErrNotConfigured,
					"No services are configured",
					"Add one with 'homestats config edit'")
			}
			return testServices(cmd.Context(), cmd, a.Store, services)
		})
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}

// ConnectionResult is one row of 'homestats test --json'.
type ConnectionResult struct {
	Service string `json:"service"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// testServices probes each service in turn. It fails when any probe fails.
func testServices(ctx context.Context, cmd *cobra.Command, m *store.Manager, services []store.ServiceType) error {
	out := cmd.OutOrStdout()
	results := make([]ConnectionResult, 0, len(services))
	failed := 0

	for _, svc := range services {
		spinner := ui.NewSpinner(string(svc))
		spinner.SetOutput(func(s string) { fmt.Fprint(out, s) })
		if !MachineMode() {
			spinner.Start()
		}

		msg, err := m.TestConnection(ctx, svc)
		res := ConnectionResult{Service: string(svc), OK: err == nil, Message: msg}
		if err != nil {
			res.Message = errors.Summary(err)
			failed++
		}
		results = append(results, res)

		if MachineMode() {
			continue
		}
		spinner.SetDetail(res.Message)
		if res.OK {
			spinner.Success()
		} else {
			spinner.Fail()
		}
	}

	if MachineMode() {
		if err := WriteJSONSuccess(out, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return errors.New(errors.ErrTransport,
			fmt.Sprintf("%d of %d connection %s failed", failed, len(services), util.Pluralize(len(services), "test", "tests")),
			"Check the URL and credentials with 'homestats config show'")
	}
	return nil
}
