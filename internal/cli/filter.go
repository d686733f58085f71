package cli

import (
	"context"
	"fmt"

	"misragate/internal/config"
	"misragate/internal/engine"
	"misragate/internal/flags"

	"github.com/spf13/cobra"
)

func newFilterCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep only MISRA findings on lines changed in a git diff range",
		Long: `Filter cppcheck XML results down to MISRA C:2012 findings on changed lines.

For every file a misra-c2012-* finding points into, misragate runs
  git -C <source-dir> diff -U0 <git-diff> -- <file>
and keeps the finding when one of its locations falls inside an added or
modified hunk. A file whose diff cannot be computed counts as unchanged.

Output:
	--output receives a CSV (misra-c2012-rule,severity,file,line,column) with one
	row per location. --max-size stops adding rows once the file would exceed
	the given number of bytes.

	The console lists each kept finding as
	  <file>:<line>: <severity>: <msg> [<id>]
	Use --console-format json|ndjson for machine-readable console output.

	Structured outputs can be written via:
	- --out / --out-format: a JSON array or an NDJSON event stream
	- --sarif: a SARIF 2.1.0 log for code-scanning upload
	- --report: a Markdown summary for pull request comments
	- --no-console: suppress the console listing

Exit codes:
	0 = filter ran (errors while filtering are printed and count as 0 findings)
	1 = invalid flags, or findings kept with --fail-on-findings

Examples:
  misragate filter --input cppcheck.xml --output misra.csv
  misragate filter --input cppcheck.xml --output misra.csv --git-diff origin/develop...HEAD --max-size 1000000
  misragate filter --input cppcheck.xml --output misra.csv --sarif misra.sarif --fail-on-findings
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateFilter(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
			defer cancel()

			eng := engine.NewEngine(cmd.OutOrStdout(), cmd.ErrOrStderr())
			eng.Version = buildVersion
			res := eng.Run(ctx, cfg)

			fmt.Fprintf(eng.StatusWriter(cfg), "Found %d misra violations\n", res.Kept)
			if res.ExitCode != 0 {
				return &ExitError{Code: res.ExitCode}
			}
			return nil
		},
	}

	// Filter
	cmd.Flags().StringVar(&cfg.Filter.Input, flags.FlagInput, "", "Path to the cppcheck XML results file (required)")
	cmd.Flags().StringVar(&cfg.Filter.Output, flags.FlagOutput, "", "Path of the CSV file to write (required)")
	cmd.Flags().StringVar(&cfg.Filter.GitDiff, flags.FlagGitDiff, cfg.Filter.GitDiff, "Git diff range in A...B form")
	cmd.Flags().Int64Var(&cfg.Filter.MaxSize, flags.FlagMaxSize, 0, "Maximum CSV size in bytes (0 = unlimited)")
	cmd.Flags().StringVar(&cfg.Filter.SourceDir, flags.FlagSourceDir, cfg.Filter.SourceDir, "Git working tree the findings refer to")
	cmd.Flags().IntVar(&cfg.Filter.Concurrency, flags.FlagConcurrency, cfg.Filter.Concurrency, "Concurrent git diff invocations")
	cmd.Flags().BoolVar(&cfg.Filter.Progress, flags.FlagProgress, false, "Show a progress bar on stderr while diffs are computed")
	cmd.Flags().BoolVar(&cfg.Filter.FailOnFindings, flags.FlagFailOnFindings, false, "Exit 1 when at least one finding is on a changed line")

	// Output
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured findings to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringVar(&cfg.Output.SARIF, flags.FlagSARIF, "", "Write a SARIF 2.1.0 log to this path")
	cmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress the console listing")
	return cmd
}
