package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/ui"
)

// Global flags
var (
	cfgFile string
	verbose bool
	quiet   bool
	noColor bool
)

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

var rootCmd = &cobra.Command{
	Use:   "homestats",
	Short: "Telemetry dashboard for a home lab",
	Long: `homestats polls Home Assistant, Proxmox, Pi-hole and a media stack
(Plex, Sonarr, Radarr, SABnzbd) and shows the results in a terminal
dashboard or serves them over HTTP.

Service credentials live in a synced config store; process settings
(refresh intervals, dashboard entities, replica backend) live in
.homestats.yaml.

Examples:
  homestats config init
  homestats config edit
  homestats dashboard
  homestats serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: .homestats.yaml, then ~/.config/homestats/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	defer logger.Close()
	if err == nil {
		return 0
	}

	if MachineMode() {
		_ = WriteJSONFromError(rootCmd.OutOrStdout(), err)
		return 1
	}
	writeError(rootCmd.ErrOrStderr(), err)
	return 1
}

// writeError prints err in the structured terminal format.
func writeError(w io.Writer, err error) {
	var hsErr *errors.Error
	switch {
	case stderrors.As(err, &hsErr):
		fmt.Fprint(w, hsErr.Error())
	case isUnknownCommandError(err):
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("'%s' isn't a homestats command", name)
		}
		fmt.Fprint(w, errors.New(errors.ErrConfig, msg, "Run 'homestats --help' to see what's available").Error())
	default:
		fmt.Fprintf(w, "%s %s\n", ui.SymbolFail, err)
	}
}

// isUnknownCommandError reports cobra's "unknown command" and "unknown
// flag" errors.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of
// `unknown command "foo" for "homestats"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadSettings finds, loads and validates the settings file, then
// configures the process logger from it. With no file the defaults apply.
func loadSettings() (*config.Config, string, error) {
	settings, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(settings); err != nil {
		return nil, "", err
	}

	logCfg := settings.Log
	switch {
	case verbose:
		logCfg.Level = "debug"
	case quiet:
		logCfg.Level = "error"
	}
	if err := logger.Init(logCfg); err != nil {
		return nil, "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to set up logging",
			"Check log.level and log.output in "+displayPath(path))
	}
	return settings, path, nil
}

// openApp is swapped in tests.
var openApp = func(ctx context.Context, settings *config.Config, opts ...app.Option) (*app.App, error) {
	return app.New(ctx, settings, opts...)
}

// withApp loads settings, builds the application and closes it when fn
// returns.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	settings, _, err := loadSettings()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, settings)
	if err != nil {
		return err
	}
	defer closeApp(a)
	return fn(a)
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logger.Default().Warn("close: %v", err)
	}
}

func displayPath(path string) string {
	if path == "" {
		return config.ConfigFileName
	}
	return path
}
