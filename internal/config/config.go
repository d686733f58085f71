package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDeviationsURL is the MISRA deviation list published with the FreeRTOS kernel.
const DefaultDeviationsURL = "https://raw.githubusercontent.com/FreeRTOS/FreeRTOS-Kernel/main/examples/coverity/coverity_misra.config"

// DefaultGitDiff is the diff range used when --git-diff is omitted.
const DefaultGitDiff = "origin/main...HEAD"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli (suppressions.go, filter.go, deviations.go)
	// - the YAML overlay in file.go
	Deviations   Deviations
	Suppressions Suppressions
	Filter       Filter
	Output       Output
	Runtime      Runtime
}

type Deviations struct {
	// URL is where the deviation list is downloaded from (see --deviations-url).
	// raw.githubusercontent.com URLs go through the GitHub API; other URLs use plain HTTP.
	URL string

	// File reads the deviation list from a local path instead of URL (see --deviations-file).
	File string

	// Token authenticates GitHub API requests (see --github-token). When empty,
	// GITHUB_TOKEN and then "gh auth token" are tried.
	Token string
}

type Suppressions struct {
	// File is the cppcheck suppression file to write (see --cppcheck-suppress-file).
	File string

	// Extra lists additional identifiers appended after the extracted rules (see --suppress).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Extra []string
}

type Filter struct {
	// Input is the cppcheck XML results file (see --input).
	Input string

	// Output is the CSV file receiving findings on changed lines (see --output).
	Output string

	// GitDiff is the git diff range, e.g. origin/main...HEAD (see --git-diff).
	GitDiff string

	// MaxSize caps the CSV output size in bytes (see --max-size). 0 means unlimited.
	MaxSize int64

	// SourceDir is the git working tree the findings refer to (see --source-dir).
	SourceDir string

	// Concurrency bounds how many git diff invocations run at once (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Progress renders a progress bar on stderr while diffs are computed (see --progress).
	Progress bool

	// FailOnFindings makes the filter exit 1 when findings remain (see --fail-on-findings).
	FailOnFindings bool
}

type Output struct {
	// ConsoleFormat controls the console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured findings to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// SARIF writes a SARIF 2.1.0 log to this path (see --sarif).
	SARIF string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// NoConsole suppresses the console listing (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// ConfigFile is an optional YAML file supplying defaults (see --config).
	ConfigFile string

	// Timeout bounds network fetches and git invocations (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables [verbose] diagnostics on stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Deviations: Deviations{
			URL: DefaultDeviationsURL,
		},
		Filter: Filter{
			GitDiff:     DefaultGitDiff,
			SourceDir:   ".",
			Concurrency: 4,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Timeout: 5 * time.Minute,
		},
	}
}

// ValidateDeviations checks the deviation source settings shared by the
// suppressions and deviations commands.
func (c *Config) ValidateDeviations() error {
	c.Deviations.URL = strings.TrimSpace(c.Deviations.URL)
	c.Deviations.File = strings.TrimSpace(c.Deviations.File)
	c.Deviations.Token = strings.TrimSpace(c.Deviations.Token)

	if c.Deviations.File == "" {
		if c.Deviations.URL == "" {
			return errors.New("one of --deviations-url or --deviations-file must be provided")
		}
		u, err := url.Parse(c.Deviations.URL)
		if err != nil {
			return fmt.Errorf("invalid --deviations-url value: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid --deviations-url value %q: scheme must be http or https", c.Deviations.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid --deviations-url value %q: missing host", c.Deviations.URL)
		}
	}

	return c.validateRuntime()
}

func (c *Config) ValidateSuppressions() error {
	c.Suppressions.Extra = splitCommaList(c.Suppressions.Extra)
	c.Suppressions.File = strings.TrimSpace(c.Suppressions.File)

	if c.Suppressions.File == "" {
		return errors.New("--cppcheck-suppress-file is required")
	}
	for _, id := range c.Suppressions.Extra {
		if strings.ContainsAny(id, " \t") {
			return fmt.Errorf("invalid --suppress entry %q: identifiers must not contain whitespace", id)
		}
	}

	return c.ValidateDeviations()
}

func (c *Config) ValidateFilter() error {
	c.Filter.Input = strings.TrimSpace(c.Filter.Input)
	c.Filter.Output = strings.TrimSpace(c.Filter.Output)
	c.Filter.GitDiff = strings.TrimSpace(c.Filter.GitDiff)

	if c.Filter.Input == "" {
		return errors.New("--input is required")
	}
	if c.Filter.Output == "" {
		return errors.New("--output is required")
	}
	if c.Filter.GitDiff == "" {
		c.Filter.GitDiff = DefaultGitDiff
	}
	if strings.TrimSpace(c.Filter.SourceDir) == "" {
		c.Filter.SourceDir = "."
	}
	if c.Filter.MaxSize < 0 {
		return errors.New("--max-size must be >= 0")
	}
	if c.Filter.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	return c.validateRuntime()
}

func (c *Config) validateRuntime() error {
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
