// Package ui provides the terminal building blocks shared by the CLI
// commands: a palette, status symbols, sparklines, progress bars, a spinner
// for one-shot operations and plain tables.
//
// Colors are ANSI codes so output degrades well on limited terminals. Call
// DisableColors for --no-color or when stdout is not a terminal.
//
//	s := ui.NewSpinner("Testing Pi-hole")
//	s.Start()
//	// ... probe ...
//	s.Success() // or s.Fail(msg), s.Skip(msg)
package ui
