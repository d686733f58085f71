package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"misragate/internal/flags"
)

func validFilterConfig() *Config {
	cfg := New()
	cfg.Filter.Input = "cppcheck.xml"
	cfg.Filter.Output = "out/filtered.csv"
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	if cfg.Deviations.URL != DefaultDeviationsURL {
		t.Fatalf("unexpected default URL: %q", cfg.Deviations.URL)
	}
	if cfg.Filter.GitDiff != "origin/main...HEAD" {
		t.Fatalf("unexpected default git diff: %q", cfg.Filter.GitDiff)
	}
	if cfg.Filter.SourceDir != "." {
		t.Fatalf("unexpected default source dir: %q", cfg.Filter.SourceDir)
	}
	if cfg.Output.ConsoleFormat != "text" {
		t.Fatalf("unexpected default console format: %q", cfg.Output.ConsoleFormat)
	}
	if cfg.Runtime.Timeout != 5*time.Minute {
		t.Fatalf("unexpected default timeout: %v", cfg.Runtime.Timeout)
	}
}

func TestValidateSuppressions_NormalizesCommaDelimitedExtras(t *testing.T) {
	cfg := New()
	cfg.Suppressions.File = "suppressions.txt"
	cfg.Suppressions.Extra = []string{"misra-c2012-8.4, misra-c2012-2.5", "unusedFunction", ",,"}

	if err := cfg.ValidateSuppressions(); err != nil {
		t.Fatalf("ValidateSuppressions() returned error: %v", err)
	}

	want := []string{"misra-c2012-8.4", "misra-c2012-2.5", "unusedFunction"}
	if !reflect.DeepEqual(cfg.Suppressions.Extra, want) {
		t.Fatalf("Extra normalized mismatch: got %v want %v", cfg.Suppressions.Extra, want)
	}
}

func TestValidateSuppressions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing output file",
			mutate:  func(c *Config) { c.Suppressions.File = "" },
			wantErr: "--cppcheck-suppress-file is required",
		},
		{
			name:    "whitespace in identifier",
			mutate:  func(c *Config) { c.Suppressions.Extra = []string{"misra c2012"} },
			wantErr: "must not contain whitespace",
		},
		{
			name:    "no source",
			mutate:  func(c *Config) { c.Deviations.URL = "" },
			wantErr: "one of --deviations-url or --deviations-file",
		},
		{
			name:    "unsupported scheme",
			mutate:  func(c *Config) { c.Deviations.URL = "ftp://example.com/list.json" },
			wantErr: "scheme must be http or https",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.Deviations.URL = "https:///list.json" },
			wantErr: "missing host",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Runtime.Timeout = 0 },
			wantErr: "--timeout must be > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Suppressions.File = "suppressions.txt"
			tt.mutate(cfg)

			err := cfg.ValidateSuppressions()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDeviations_LocalFileSkipsURLChecks(t *testing.T) {
	cfg := New()
	cfg.Deviations.URL = ""
	cfg.Deviations.File = " deviations.json "

	if err := cfg.ValidateDeviations(); err != nil {
		t.Fatalf("ValidateDeviations() returned error: %v", err)
	}
	if cfg.Deviations.File != "deviations.json" {
		t.Fatalf("expected trimmed file path, got %q", cfg.Deviations.File)
	}
}

func TestValidateFilter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "missing input", mutate: func(c *Config) { c.Filter.Input = " " }, wantErr: "--input is required"},
		{name: "missing output", mutate: func(c *Config) { c.Filter.Output = "" }, wantErr: "--output is required"},
		{name: "negative max size", mutate: func(c *Config) { c.Filter.MaxSize = -1 }, wantErr: "--max-size must be >= 0"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Filter.Concurrency = 0 }, wantErr: "--concurrency must be >= 1"},
		{name: "bad console format", mutate: func(c *Config) { c.Output.ConsoleFormat = "xml" }, wantErr: "unsupported --console-format"},
		{name: "bad out format", mutate: func(c *Config) { c.Output.Out = "x.json"; c.Output.OutFormat = "yaml" }, wantErr: "unsupported output format"},
		{name: "out without extension", mutate: func(c *Config) { c.Output.Out = "findings" }, wantErr: "missing extension"},
		{name: "out with unknown extension", mutate: func(c *Config) { c.Output.Out = "findings.txt" }, wantErr: `extension ".txt"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validFilterConfig()
			tt.mutate(cfg)

			err := cfg.ValidateFilter()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateFilter_NormalizesAndInfers(t *testing.T) {
	cfg := validFilterConfig()
	cfg.Filter.GitDiff = ""
	cfg.Filter.SourceDir = ""
	cfg.Output.ConsoleFormat = " NDJSON "
	cfg.Output.Out = "results/findings.jsonl"

	if err := cfg.ValidateFilter(); err != nil {
		t.Fatalf("ValidateFilter() returned error: %v", err)
	}
	if cfg.Filter.GitDiff != DefaultGitDiff {
		t.Fatalf("expected default git diff, got %q", cfg.Filter.GitDiff)
	}
	if cfg.Filter.SourceDir != "." {
		t.Fatalf("expected default source dir, got %q", cfg.Filter.SourceDir)
	}
	if cfg.Output.ConsoleFormat != "ndjson" {
		t.Fatalf("expected normalized console format, got %q", cfg.Output.ConsoleFormat)
	}
	if cfg.Output.OutFormat != "ndjson" {
		t.Fatalf("expected inferred ndjson out format, got %q", cfg.Output.OutFormat)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "misragate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestApplyFile_FillsUnsetValues(t *testing.T) {
	path := writeConfigFile(t, `
deviations:
  file: ci/deviations.json
  github_token: ghp_fromfile
suppressions:
  file: build/suppressions.txt
  extra: [unusedFunction]
filter:
  input: build/cppcheck.xml
  output: build/misra.csv
  git_diff: origin/develop...HEAD
  max_size: 65536
  concurrency: 2
  fail_on_findings: true
output:
  sarif: build/misra.sarif
timeout: 90s
verbose: true
`)

	cfg := New()
	if err := cfg.ApplyFile(path, nil); err != nil {
		t.Fatalf("ApplyFile() returned error: %v", err)
	}

	if cfg.Deviations.File != "ci/deviations.json" {
		t.Fatalf("deviations file: got %q", cfg.Deviations.File)
	}
	if cfg.Deviations.Token != "ghp_fromfile" {
		t.Fatalf("github token: got %q", cfg.Deviations.Token)
	}
	if cfg.Suppressions.File != "build/suppressions.txt" {
		t.Fatalf("suppressions file: got %q", cfg.Suppressions.File)
	}
	if !reflect.DeepEqual(cfg.Suppressions.Extra, []string{"unusedFunction"}) {
		t.Fatalf("extra: got %v", cfg.Suppressions.Extra)
	}
	if cfg.Filter.Input != "build/cppcheck.xml" || cfg.Filter.Output != "build/misra.csv" {
		t.Fatalf("filter paths: got %q %q", cfg.Filter.Input, cfg.Filter.Output)
	}
	if cfg.Filter.GitDiff != "origin/develop...HEAD" {
		t.Fatalf("git diff: got %q", cfg.Filter.GitDiff)
	}
	if cfg.Filter.MaxSize != 65536 || cfg.Filter.Concurrency != 2 || !cfg.Filter.FailOnFindings {
		t.Fatalf("filter values: %+v", cfg.Filter)
	}
	if cfg.Output.SARIF != "build/misra.sarif" {
		t.Fatalf("sarif: got %q", cfg.Output.SARIF)
	}
	if cfg.Runtime.Timeout != 90*time.Second || !cfg.Runtime.Verbose {
		t.Fatalf("runtime: %+v", cfg.Runtime)
	}
	// Unset keys keep their defaults.
	if cfg.Filter.SourceDir != "." {
		t.Fatalf("source dir should keep default, got %q", cfg.Filter.SourceDir)
	}
}

func TestApplyFile_ExplicitFlagsWin(t *testing.T) {
	path := writeConfigFile(t, `
filter:
  input: from-file.xml
  max_size: 10
timeout: 1m
`)

	cfg := New()
	cfg.Filter.Input = "from-flag.xml"
	changed := func(name string) bool {
		return name == flags.FlagInput || name == flags.FlagTimeout
	}
	if err := cfg.ApplyFile(path, changed); err != nil {
		t.Fatalf("ApplyFile() returned error: %v", err)
	}

	if cfg.Filter.Input != "from-flag.xml" {
		t.Fatalf("explicit flag overridden: got %q", cfg.Filter.Input)
	}
	if cfg.Filter.MaxSize != 10 {
		t.Fatalf("max size should come from file, got %d", cfg.Filter.MaxSize)
	}
	if cfg.Runtime.Timeout != 5*time.Minute {
		t.Fatalf("timeout should keep flag value, got %v", cfg.Runtime.Timeout)
	}
}

func TestApplyFile_Errors(t *testing.T) {
	cfg := New()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := writeConfigFile(t, "timeout: soon\n")
	err := cfg.ApplyFile(path, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid timeout") {
		t.Fatalf("expected invalid timeout error, got %v", err)
	}

	path = writeConfigFile(t, "filter: [unterminated\n")
	if err := cfg.ApplyFile(path, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
