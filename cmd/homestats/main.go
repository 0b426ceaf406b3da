package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/rileyhilliard/homestats/internal/cli"
)

// Version info set via ldflags at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2026-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A .env next to the binary may carry HOMESTATS_* overrides; it is optional.
	_ = godotenv.Load()

	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.Execute())
}
