// Package cli implements the homestats command-line interface.
//
// Every command is a package-level cobra.Command registered from init.
// Commands that need live data build an *app.App through withApp, which
// loads .homestats.yaml, configures logging and closes the app when the
// command returns.
//
// # Command Structure
//
//	homestats dashboard            - full-screen terminal dashboard
//	homestats serve                - headless pollers behind an HTTP/SSE API
//	homestats status               - poll every source once and report health
//	homestats snapshot <source>    - print one source's raw snapshot
//	homestats toggle|press|garage  - one-shot Home Assistant commands
//	homestats lights <group> on|off
//	homestats config [show|set|edit|init|path]
//	homestats printer [add|remove|list|press]
//	homestats test [service...]    - connection tests
//	homestats sync [pull|push]     - replica round trips
//	homestats filters [list|add-domain|add-name]
//
// # Output
//
// Global flags (--config, --verbose, --quiet, --no-color, --json) live on
// the root command. With --json every command writes a JSONEnvelope to
// stdout, including failures, so scripts never have to parse the
// human-oriented error format.
package cli
