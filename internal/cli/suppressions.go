package cli

import (
	"context"
	"fmt"

	"misragate/internal/config"
	"misragate/internal/deviations"
	"misragate/internal/flags"
	"misragate/internal/suppress"

	"github.com/spf13/cobra"
)

func newSuppressionsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppressions",
		Short: "Generate a cppcheck suppression file from a MISRA deviation list",
		Long: `Generate a cppcheck suppression file from a MISRA deviation list.

The file always starts with the static suppressions
  missingIncludeSystem, checkersReport, unmatchedSuppression, misra-config
followed by one misra-c2012-X.Y identifier per deviation that references a
"Rule X.Y" or "Directive X.Y", then any --suppress identifiers.

If the deviation list cannot be fetched or parsed, a warning is printed and
the file is written with the static suppressions only.

Authentication:
  raw.githubusercontent.com URLs are fetched through the GitHub API. A token is
  optional; it is taken from --github-token, then GITHUB_TOKEN, then from
  "gh auth token" when the GitHub CLI is installed and logged in. If the API
  refuses the request, the raw URL is downloaded directly.

Examples:
  misragate suppressions --cppcheck-suppress-file build/suppressions.txt
  misragate suppressions --cppcheck-suppress-file out.txt --deviations-file coverity_misra.config
  misragate suppressions --cppcheck-suppress-file out.txt --suppress unusedFunction,variableScope
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateSuppressions(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
			defer cancel()

			client, err := newGitHubClient(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			src := deviations.Source{URL: cfg.Deviations.URL, File: cfg.Deviations.File}
			sum, err := suppress.Generate(ctx, client, src, cfg.Suppressions.Extra, cfg.Suppressions.File, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Suppressions.File, flags.FlagSuppressFile, "", "Path of the cppcheck suppression file to write (required)")
	cmd.Flags().StringSliceVar(&cfg.Suppressions.Extra, flags.FlagSuppress, nil, "Additional identifiers to suppress (repeatable; comma-separated accepted)")
	addDeviationSourceFlags(cmd, cfg)
	return cmd
}

func addDeviationSourceFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Deviations.URL, flags.FlagDeviationsURL, cfg.Deviations.URL, "URL of the MISRA deviation list (Coverity JSON config)")
	cmd.Flags().StringVar(&cfg.Deviations.File, flags.FlagDeviationsFile, "", "Read the deviation list from a local file instead of --deviations-url")
	cmd.Flags().StringVar(&cfg.Deviations.Token, flags.FlagGitHubToken, "", "GitHub token for API downloads (default: GITHUB_TOKEN, then gh auth token)")
}
