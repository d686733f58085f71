package cli

import (
	"context"
	"fmt"
	"io"

	"misragate/internal/config"
	"misragate/internal/deviations"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDeviationsCmd(cfg *config.Config) *cobra.Command {
	deviationsCmd := &cobra.Command{
		Use:   "deviations",
		Short: "Inspect MISRA deviation lists",
		Long: `Inspect MISRA deviation lists.

Deviations are documented exceptions to MISRA rules. The suppressions command
turns them into cppcheck suppressions (see "misragate suppressions --help").

Examples:
  # List the deviations of the default list
  misragate deviations list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var quiet bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List deviations and the identifiers they suppress",
		Long: `List every deviation of a deviation list in document order.

Examples:
  misragate deviations list
  misragate deviations list --deviations-file coverity_misra.config -q

Output:
  A vertical list of deviations:
    ----------------------------------------
    RULE: {IDENTIFIER}
    ----------------------------------------
    {DEVIATION}
    {REASON}

  Deviations without a rule or directive reference are shown with
  "RULE: (none)". With -q only identifiers are printed.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateDeviations(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
			defer cancel()

			client, err := newGitHubClient(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			src := deviations.Source{URL: cfg.Deviations.URL, File: cfg.Deviations.File}
			devs, err := deviations.Load(ctx, client, src)
			if err != nil {
				return fmt.Errorf("load deviations from %s: %w", src, err)
			}

			for _, d := range devs {
				if quiet {
					if id, ok := d.RuleID(); ok {
						fmt.Fprintln(cmd.OutOrStdout(), id)
					}
					continue
				}
				printDeviation(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print identifiers")
	addDeviationSourceFlags(listCmd, cfg)

	deviationsCmd.AddCommand(listCmd)
	return deviationsCmd
}

func printDeviation(w io.Writer, d deviations.Deviation) {
	bold := color.New(color.Bold)
	id, ok := d.RuleID()
	if !ok {
		id = "(none)"
	}
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", id)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, d.Deviation)
	if d.Reason != "" {
		fmt.Fprintln(w, d.Reason)
	}
	fmt.Fprintln(w)
}
