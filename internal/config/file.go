package config

import (
	"fmt"
	"os"
	"time"

	"misragate/internal/flags"

	"github.com/invopop/yaml"
)

// fileConfig mirrors Config for the YAML overlay. Pointer fields distinguish
// "absent" from zero values.
type fileConfig struct {
	Deviations *struct {
		URL   *string `json:"url"`
		File  *string `json:"file"`
		Token *string `json:"github_token"`
	} `json:"deviations"`
	Suppressions *struct {
		File  *string  `json:"file"`
		Extra []string `json:"extra"`
	} `json:"suppressions"`
	Filter *struct {
		Input          *string `json:"input"`
		Output         *string `json:"output"`
		GitDiff        *string `json:"git_diff"`
		MaxSize        *int64  `json:"max_size"`
		SourceDir      *string `json:"source_dir"`
		Concurrency    *int    `json:"concurrency"`
		FailOnFindings *bool   `json:"fail_on_findings"`
	} `json:"filter"`
	Output *struct {
		ConsoleFormat *string `json:"console_format"`
		Out           *string `json:"out"`
		OutFormat     *string `json:"out_format"`
		SARIF         *string `json:"sarif"`
		Report        *string `json:"report"`
	} `json:"output"`
	Timeout *string `json:"timeout"`
	Verbose *bool   `json:"verbose"`
}

// ApplyFile overlays values from a YAML config file onto c. A value is only
// taken from the file when changed reports that the corresponding flag was
// not set on the command line, so explicit flags always win.
func (c *Config) ApplyFile(path string, changed func(flagName string) bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if changed == nil {
		changed = func(string) bool { return false }
	}
	setString := func(dst *string, v *string, name string) {
		if v != nil && !changed(name) {
			*dst = *v
		}
	}

	if d := fc.Deviations; d != nil {
		setString(&c.Deviations.URL, d.URL, flags.FlagDeviationsURL)
		setString(&c.Deviations.File, d.File, flags.FlagDeviationsFile)
		setString(&c.Deviations.Token, d.Token, flags.FlagGitHubToken)
	}

	if s := fc.Suppressions; s != nil {
		setString(&c.Suppressions.File, s.File, flags.FlagSuppressFile)
		if len(s.Extra) > 0 && !changed(flags.FlagSuppress) {
			c.Suppressions.Extra = append([]string(nil), s.Extra...)
		}
	}

	if f := fc.Filter; f != nil {
		setString(&c.Filter.Input, f.Input, flags.FlagInput)
		setString(&c.Filter.Output, f.Output, flags.FlagOutput)
		setString(&c.Filter.GitDiff, f.GitDiff, flags.FlagGitDiff)
		setString(&c.Filter.SourceDir, f.SourceDir, flags.FlagSourceDir)
		if f.MaxSize != nil && !changed(flags.FlagMaxSize) {
			c.Filter.MaxSize = *f.MaxSize
		}
		if f.Concurrency != nil && !changed(flags.FlagConcurrency) {
			c.Filter.Concurrency = *f.Concurrency
		}
		if f.FailOnFindings != nil && !changed(flags.FlagFailOnFindings) {
			c.Filter.FailOnFindings = *f.FailOnFindings
		}
	}

	if o := fc.Output; o != nil {
		setString(&c.Output.ConsoleFormat, o.ConsoleFormat, flags.FlagConsoleFormat)
		setString(&c.Output.Out, o.Out, flags.FlagOut)
		setString(&c.Output.OutFormat, o.OutFormat, flags.FlagOutFormat)
		setString(&c.Output.SARIF, o.SARIF, flags.FlagSARIF)
		setString(&c.Output.Report, o.Report, flags.FlagReport)
	}

	if fc.Timeout != nil && !changed(flags.FlagTimeout) {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in %s: %w", *fc.Timeout, path, err)
		}
		c.Runtime.Timeout = d
	}
	if fc.Verbose != nil && !changed(flags.FlagVerbose) {
		c.Runtime.Verbose = *fc.Verbose
	}

	return nil
}
