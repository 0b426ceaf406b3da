package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/rileyhilliard/homestats/internal/ui"
	"github.com/rileyhilliard/homestats/internal/util"
)

// serviceFields is the flag/form view of one service's credentials. Secret
// is the token, API key or password depending on the service.
type serviceFields struct {
	URL      string
	Secret   string
	Username string
	Nodes    []string
}

var (
	setFields   serviceFields
	setClear    bool
	setInsecure bool

	initForce  bool
	initGlobal bool

	showSecrets bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit the synced service configuration",
	Long: `Service URLs and credentials live in the synced config store, not in
.homestats.yaml. These commands read and write that store; every change is
saved locally and mirrored to the replica when one is configured.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the service configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			cfg := a.Store.Current()
			if !showSecrets {
				cfg = maskSecrets(cfg)
			}
			if MachineMode() {
				return WriteJSONSuccess(cmd.OutOrStdout(), cfg)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderConfig(cfg))
			return nil
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <service>",
	Short: "Set or clear one service's URL and credentials",
	Long: `Set the URL and credential for a service. --secret is the access token
(Home Assistant, Plex), API key (Sonarr, Radarr, SABnzbd), token secret
(Proxmox) or web password (Pi-hole).

Examples:
  homestats config set homeassistant --url http://ha.local:8123 --secret eyJ...
  homestats config set proxmox --url https://pve:8006 --username root@pam!hs --secret ... --nodes pve
  homestats config set sonarr --clear`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := parseService(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			err := a.Store.Update(cmd.Context(), func(cfg *store.Config) {
				if cmd.Flags().Changed("insecure") {
					cfg.AllowInsecureCerts = setInsecure
				}
				if setClear {
					clearService(cfg, svc)
					return
				}
				applyService(cfg, svc, mergeFields(currentFields(*cfg, svc), setFields))
			})
			if err != nil {
				return err
			}
			verb := "Updated"
			if setClear {
				verb = "Cleared"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.SymbolSuccess, verb, svc)
			return nil
		})
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit service credentials interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New(errors.ErrConfig,
				"config edit needs an interactive terminal",
				"Use 'homestats config set <service> --url ... --secret ...' instead")
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			return editInteractive(cmd.Context(), cmd, a.Store)
		})
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .homestats.yaml",
	Long: `Write a settings file with default refresh intervals and an empty
dashboard section to ./.homestats.yaml, or to the user config directory
with --global.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if initGlobal {
			p, err := config.GlobalPath()
			if err != nil {
				return err
			}
			path = p
		} else if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, config.ConfigFileName)
		}

		if err := config.WriteDefault(path, initForce); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't write "+path, "Pass --force to overwrite an existing file")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.SymbolSuccess, path)
		fmt.Fprintln(cmd.OutOrStdout(), ui.Muted("  Next: homestats config edit"))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file and state directory in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, path, err := loadSettings()
		if err != nil {
			return err
		}
		stateDir, err := config.ResolveStateDir(settings)
		if err != nil {
			return err
		}
		if path == "" {
			path = "(defaults, no settings file found)"
		}
		if MachineMode() {
			return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"settings": path, "state_dir": stateDir})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "settings:  %s\nstate dir: %s\n", path, stateDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configEditCmd, configInitCmd, configPathCmd)

	configShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and passwords in full")

	configSetCmd.Flags().StringVar(&setFields.URL, "url", "", "service base URL")
	configSetCmd.Flags().StringVar(&setFields.Secret, "secret", "", "token, API key or password")
	configSetCmd.Flags().StringVar(&setFields.Username, "username", "", "Proxmox API token id (user@realm!name)")
	configSetCmd.Flags().StringSliceVar(&setFields.Nodes, "nodes", nil, "Proxmox node names; the first is shown")
	configSetCmd.Flags().BoolVar(&setClear, "clear", false, "remove the service")
	configSetCmd.Flags().BoolVar(&setInsecure, "insecure", false, "accept self-signed certificates")

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&initGlobal, "global", false, "write to the user config directory")
}

func parseService(name string) (store.ServiceType, error) {
	svc, ok := store.ParseServiceType(name)
	if !ok {
		slugs := make([]string, 0, len(store.AllServices))
		for _, s := range store.AllServices {
			slugs = append(slugs, s.Slug())
		}
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown service '%s'", name),
			"Use one of: "+strings.Join(slugs, ", "))
	}
	return svc, nil
}

// currentFields reads svc out of cfg.
func currentFields(cfg store.Config, svc store.ServiceType) serviceFields {
	var f serviceFields
	switch svc {
	case store.HomeAssistant:
		if c := cfg.HomeAssistant; c != nil {
			f.URL, f.Secret = c.URL, c.Token
		}
	case store.Plex:
		if c := cfg.Plex; c != nil {
			f.URL, f.Secret = c.URL, c.Token
		}
	case store.Sonarr, store.Radarr, store.SABnzbd:
		if c := serviceSlot(&cfg, svc); *c != nil {
			f.URL, f.Secret = (*c).URL, (*c).APIKey
		}
	case store.Proxmox:
		if c := cfg.Proxmox; c != nil {
			f.URL, f.Secret, f.Username = c.URL, c.Password, c.Username
			f.Nodes = append([]string(nil), c.Nodes...)
		}
	case store.Pihole:
		if c := cfg.Pihole; c != nil {
			f.URL, f.Secret = c.URL, c.APIToken
		}
	}
	return f
}

// mergeFields overlays the non-empty parts of update onto base.
func mergeFields(base, update serviceFields) serviceFields {
	if update.URL != "" {
		base.URL = update.URL
	}
	if update.Secret != "" {
		base.Secret = update.Secret
	}
	if update.Username != "" {
		base.Username = update.Username
	}
	if len(update.Nodes) > 0 {
		base.Nodes = update.Nodes
	}
	return base
}

// applyService writes f into cfg as svc's configuration.
func applyService(cfg *store.Config, svc store.ServiceType, f serviceFields) {
	url := strings.TrimRight(strings.TrimSpace(f.URL), "/")
	switch svc {
	case store.HomeAssistant:
		cfg.HomeAssistant = &store.HomeAssistantConfig{URL: url, Token: f.Secret}
	case store.Plex:
		cfg.Plex = &store.PlexConfig{URL: url, Token: f.Secret}
	case store.Sonarr, store.Radarr, store.SABnzbd:
		*serviceSlot(cfg, svc) = &store.ServiceConfig{URL: url, APIKey: f.Secret}
	case store.Proxmox:
		nodes := f.Nodes
		if nodes == nil {
			nodes = []string{}
		}
		cfg.Proxmox = &store.ProxmoxConfig{URL: url, Username: f.Username, Password: f.Secret, Nodes: nodes}
	case store.Pihole:
		cfg.Pihole = &store.PiholeConfig{URL: url, APIToken: f.Secret}
	}
}

func clearService(cfg *store.Config, svc store.ServiceType) {
	switch svc {
	case store.HomeAssistant:
		cfg.HomeAssistant = nil
	case store.Plex:
		cfg.Plex = nil
	case store.Sonarr, store.Radarr, store.SABnzbd:
		*serviceSlot(cfg, svc) = nil
	case store.Proxmox:
		cfg.Proxmox = nil
	case store.Pihole:
		cfg.Pihole = nil
	}
}

func serviceSlot(cfg *store.Config, svc store.ServiceType) **store.ServiceConfig {
	switch svc {
	case store.Sonarr:
		return &cfg.Sonarr
	case store.Radarr:
		return &cfg.Radarr
	}
	return &cfg.SABnzbd
}

func maskSecrets(cfg store.Config) store.Config {
	out := cfg.Clone()
	for _, svc := range store.AllServices {
		if !out.IsConfigured(svc) {
			continue
		}
		f := currentFields(out, svc)
		f.Secret = util.MaskSecret(f.Secret)
		applyService(&out, svc, f)
	}
	for i := range out.Printers {
		out.Printers[i].AccessCode = util.MaskSecret(out.Printers[i].AccessCode)
	}
	return out
}

func renderConfig(cfg store.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n", cfg.AppMode)
	if cfg.AllowInsecureCerts {
		b.WriteString("Self-signed certificates: allowed\n")
	}

	var category store.Category
	for _, svc := range store.AllServices {
		if svc.Category() != category {
			category = svc.Category()
			b.WriteString("\n" + ui.Bold(string(category)) + "\n")
		}
		if !cfg.IsConfigured(svc) {
			fmt.Fprintf(&b, "  %s %-15s %s\n", ui.SymbolSkipped, svc, ui.Muted("not configured"))
			continue
		}
		f := currentFields(cfg, svc)
		line := f.URL
		if f.Username != "" {
			line += "  user " + f.Username
		}
		if f.Secret != "" {
			line += "  secret " + f.Secret
		}
		if len(f.Nodes) > 0 {
			line += "  nodes " + strings.Join(f.Nodes, ",")
		}
		fmt.Fprintf(&b, "  %s %-15s %s\n", ui.SymbolComplete, svc, line)
	}

	fmt.Fprintf(&b, "\n%s\n", ui.Bold(fmt.Sprintf("Printers (%d)", len(cfg.Printers))))
	for _, p := range cfg.Printers {
		fmt.Fprintf(&b, "  %s  %s\n", p.Name, ui.Muted(p.PrinterID))
	}
	return b.String()
}

func editInteractive(ctx context.Context, cmd *cobra.Command, m *store.Manager) error {
	cfg := m.Current()

	options := make([]huh.Option[string], 0, len(store.AllServices))
	for _, svc := range store.AllServices {
		label := string(svc)
		if cfg.IsConfigured(svc) {
			label += " (configured)"
		}
		options = append(options, huh.NewOption(label, string(svc)))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which service?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your selection",
			"Try again or use: homestats config set <service>")
	}
	svc := store.ServiceType(choice)

	f := currentFields(cfg, svc)
	nodes := strings.Join(f.Nodes, ",")
	fields := []huh.Field{
		huh.NewNote().Title(string(svc)).Description(svc.HelpText()),
		huh.NewInput().
			Title("URL").
			Placeholder("http://192.168.1.10:8123").
			Value(&f.URL).
			Validate(func(s string) error {
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					return fmt.Errorf("URL must start with http:// or https://")
				}
				return nil
			}),
	}
	if svc == store.Proxmox {
		fields = append(fields,
			huh.NewInput().Title("API token id").Placeholder("root@pam!homestats").Value(&f.Username),
		)
	}
	fields = append(fields, huh.NewInput().
		Title(secretLabel(svc)).
		EchoMode(huh.EchoModePassword).
		Value(&f.Secret))
	if svc == store.Proxmox {
		fields = append(fields, huh.NewInput().Title("Nodes (comma separated)").Value(&nodes))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your input",
			"Try again or use: homestats config set "+svc.Slug())
	}
	f.Nodes = splitList(nodes)

	if err := m.Update(ctx, func(c *store.Config) { applyService(c, svc, f) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Saved %s\n", ui.SymbolSuccess, svc)

	var test bool
	confirm := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Test the connection now?").Value(&test),
	))
	if err := confirm.Run(); err != nil || !test {
		return nil
	}
	return testServices(ctx, cmd, m, []store.ServiceType{svc})
}

func secretLabel(svc store.ServiceType) string {
	switch svc {
	case store.HomeAssistant, store.Plex:
		return "Token"
	case store.Proxmox:
		return "Token secret"
	case store.Pihole:
		return "Password"
	}
	return "API key"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
