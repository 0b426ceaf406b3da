// Package monitor implements the interactive terminal dashboard.
//
// The dashboard is a Bubble Tea program (Model-Update-View). It never
// fetches from the upstream services itself: the schedulers owned by the
// app package do that, and the model re-reads their published snapshots
// through the Backend interface on every tick.
//
// # Message Flow
//
//  1. tickMsg fires at the configured interval (default 1s)
//  2. loadCmd reads every view model from the Backend
//  3. snapshotMsg arrives, the model stores it and feeds History
//  4. View() re-renders the active tab
//
// Commands (light groups, garage door, printer buttons) run as tea.Cmds
// with a timeout and report back with commandResultMsg, which also
// triggers an immediate re-read.
//
// # Tabs
//
//	Home      - Garage door, climate, weather and light groups
//	Infra     - Proxmox node and guests
//	Network   - Pi-hole counters and history
//	Media     - Downloads, upcoming episodes, recent additions
//	Printers  - Printer status and control buttons
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	Tab, 1-5    - Switch tab
//	r           - Refresh all sources
//	j/k, ↑/↓    - Move the cursor
//	Enter       - Toggle light group / press printer button
//	o, g        - All lights off, garage door (Home)
//	?           - Toggle help overlay
package monitor
