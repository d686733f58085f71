package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"misragate/internal/config"
	"misragate/internal/flags"
	gh "misragate/internal/github"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const rootLong = `misragate gates C changes on MISRA C:2012 findings in CI.

It turns a published MISRA deviation list into a cppcheck suppression file,
and narrows cppcheck XML results down to the lines a branch actually changed.

Examples:
	# Build the suppression file from the FreeRTOS deviation list
	misragate suppressions --cppcheck-suppress-file build/suppressions.txt

	# Keep only findings on lines changed since origin/main
	misragate filter --input cppcheck.xml --output misra.csv

	# Show which deviations the list contains
	misragate deviations list

	# Print build info
	misragate version

Configuration:
	Flags may also be supplied through a YAML file (--config). Values given on
	the command line win over the file. A .env file in the working directory is
	loaded at start-up (e.g. for GITHUB_TOKEN).`

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// normalizeFlagName accepts snake_case spellings such as
// --cppcheck_suppress_file.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// NewRootCmd builds the command tree around a fresh configuration.
func NewRootCmd() *cobra.Command {
	cfg := config.New()

	rootCmd := &cobra.Command{
		Use:           "misragate",
		Short:         "Gate C changes on MISRA C:2012 findings",
		Long:          rootLong,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Runtime.ConfigFile == "" {
				return nil
			}
			return cfg.ApplyFile(cfg.Runtime.ConfigFile, cmd.Flags().Changed)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every HTTP request and git invocation detail)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "YAML file providing defaults for any flag")
	rootCmd.PersistentFlags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout for network fetches and git invocations")

	rootCmd.AddCommand(
		newSuppressionsCmd(cfg),
		newFilterCmd(cfg),
		newDeviationsCmd(cfg),
		newVersionCmd(),
	)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	return rootCmd
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newGitHubClient builds a client for fetching the deviation list. A missing
// token is fine: the published list is public.
func newGitHubClient(ctx context.Context, cfg *config.Config, stderr io.Writer) (*gh.Client, error) {
	token, source, err := gh.ResolveAuthToken(ctx, cfg.Deviations.Token)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: failed to resolve GitHub auth token: %v\n", err)
		token = ""
	}
	if cfg.Runtime.Verbose {
		if token != "" {
			fmt.Fprintf(stderr, "[verbose] github token from %s\n", source)
		} else {
			fmt.Fprintln(stderr, "[verbose] no github token; using anonymous access")
		}
	}

	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, stderr))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return client, nil
}
