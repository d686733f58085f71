// Package suppress writes cppcheck suppression files.
package suppress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"misragate/internal/deviations"
)

// Baseline lists checks that are always suppressed, ahead of any deviation.
var Baseline = []string{
	"missingIncludeSystem",
	"checkersReport",
	"unmatchedSuppression",
	"misra-config",
}

// Write writes Baseline followed by ids, one identifier per line.
func Write(w io.Writer, ids []string) error {
	bw := bufio.NewWriter(w)
	for _, group := range [][]string{Baseline, ids} {
		for _, id := range group {
			if _, err := fmt.Fprintln(bw, id); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes the suppression file at path, creating parent directories.
func WriteFile(path string, ids []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create suppression file: %w", err)
	}
	if err := Write(f, ids); err != nil {
		_ = f.Close()
		return fmt.Errorf("write suppression file: %w", err)
	}
	return f.Close()
}

// Summary describes a generated suppression file.
type Summary struct {
	Path string
	// Rules counts identifiers extracted from the deviation list.
	Rules int
	// Extra counts identifiers supplied by the caller.
	Extra int
	// FetchErr is the swallowed deviation load failure, if any.
	FetchErr error
}

func (s Summary) String() string {
	if s.Rules > 0 {
		return fmt.Sprintf("Generated %s with %d MISRA rules", s.Path, s.Rules)
	}
	return fmt.Sprintf("Generated %s with static rules only (no MISRA rules from URL)", s.Path)
}

// Generate loads the deviation list, extracts its rules and writes the
// suppression file. A load failure is reported on warn and degrades to the
// baseline (plus extra); only a failure to write path is returned.
func Generate(ctx context.Context, f deviations.Fetcher, src deviations.Source, extra []string, path string, warn io.Writer) (Summary, error) {
	if warn == nil {
		warn = io.Discard
	}
	sum := Summary{Path: path, Extra: len(extra)}

	var rules []string
	devs, err := deviations.Load(ctx, f, src)
	if err != nil {
		sum.FetchErr = err
		fmt.Fprintf(warn, "Warning: Could not fetch MISRA rules from URL (%v). Generating config with static rules only.\n", err)
	} else {
		rules = deviations.ExtractRules(devs)
	}
	sum.Rules = len(rules)

	ids := make([]string, 0, len(rules)+len(extra))
	ids = append(ids, rules...)
	ids = append(ids, extra...)

	if err := WriteFile(path, ids); err != nil {
		return sum, err
	}
	return sum, nil
}
