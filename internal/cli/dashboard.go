package cli

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/monitor"
)

var dashboardInterval time.Duration

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "tui"},
	Short:   "Interactive terminal dashboard",
	Long: `Open the full-screen dashboard. Every source polls on its own
interval from .homestats.yaml; the screen re-reads the latest data every
--interval.

Keys: 1-5 or tab to switch tabs, j/k to move, enter to activate,
r to refresh everything, ? for help, q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New(errors.ErrConfig,
				"The dashboard needs an interactive terminal",
				"Use 'homestats status' or 'homestats serve' when output is redirected")
		}

		ctx := cmd.Context()
		settings, _, err := loadSettings()
		if err != nil {
			return err
		}

		// The TUI owns the terminal; logs only survive when they go to a file.
		var opts []app.Option
		if logsToTerminal(settings.Log.Output) {
			logger.SetDefault(logger.Noop())
			opts = append(opts, app.WithLogger(logger.Noop()))
		}

		a, err := openApp(ctx, settings, opts...)
		if err != nil {
			return err
		}
		defer closeApp(a)

		a.Start(ctx)
		p := tea.NewProgram(monitor.NewModel(a, dashboardInterval, commandTimeout),
			tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func logsToTerminal(output string) bool {
	return output == "" || output == "stderr" || output == "stdout"
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", time.Second, "screen refresh interval")
}
