package main

import (
	"misragate/internal/cli"

	"github.com/joho/godotenv"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
