package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// YAML config overlay. Keeping these as constants helps avoid drift between
// Cobra flag wiring and config.ApplyFile, which only fills values whose flag
// was not set explicitly.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Filter.Input, flags.FlagInput, "", "...")
//	arg := "--" + flags.FlagInput
const (
	// Global
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagTimeout = "timeout"

	// Deviation source
	FlagDeviationsURL  = "deviations-url"
	FlagDeviationsFile = "deviations-file"
	FlagGitHubToken    = "github-token"

	// Suppressions
	FlagSuppressFile = "cppcheck-suppress-file"
	FlagSuppress     = "suppress"

	// Filter
	FlagInput          = "input"
	FlagOutput         = "output"
	FlagGitDiff        = "git-diff"
	FlagMaxSize        = "max-size"
	FlagSourceDir      = "source-dir"
	FlagConcurrency    = "concurrency"
	FlagProgress       = "progress"
	FlagFailOnFindings = "fail-on-findings"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagSARIF         = "sarif"
	FlagReport        = "report"
	FlagNoConsole     = "no-console"
)
