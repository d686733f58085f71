package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"misragate/internal/config"
	"misragate/internal/cppcheck"
	"misragate/internal/diff"
	"misragate/internal/output"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// exitCodeForRun implements the filter's exit code contract:
// 0 = run finished (findings or not, errors included)
// 1 = findings kept and --fail-on-findings set
func exitCodeForRun(kept int, failOnFindings bool) int {
	if failOnFindings && kept > 0 {
		return 1
	}
	return 0
}

// Result is the outcome of one filter run.
type Result struct {
	Considered int
	Kept       int
	ExitCode   int
	Err        error
}

type Engine struct {
	// Source overrides the diff source. If nil, Engine runs git in
	// cfg.Filter.SourceDir.
	Source diff.Source

	Stdout io.Writer
	Stderr io.Writer

	// Version is stamped into SARIF output.
	Version string

	// newRunID is a test seam for deterministic run ids.
	newRunID func() string
}

func NewEngine(stdout, stderr io.Writer) *Engine {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Engine{
		Stdout:   stdout,
		Stderr:   stderr,
		newRunID: uuid.NewString,
	}
}

// StatusWriter is where counts and notices go. Structured console formats
// keep stdout machine-readable, so status lines move to stderr.
func (e *Engine) StatusWriter(cfg *config.Config) io.Writer {
	if cfg.Output.ConsoleFormat == "json" || cfg.Output.ConsoleFormat == "ndjson" {
		return e.Stderr
	}
	return e.Stdout
}

func (e *Engine) verbosef(cfg *config.Config, format string, args ...any) {
	if cfg.Runtime.Verbose {
		fmt.Fprintf(e.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// Run filters cppcheck findings down to the lines changed in the configured
// diff range and writes them to every configured output. Runtime failures are
// reported on stderr and count as zero findings.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) Result {
	res, err := e.filter(ctx, cfg)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error filtering results: %v\n", err)
		res = Result{Err: err}
	}
	res.ExitCode = exitCodeForRun(res.Kept, cfg.Filter.FailOnFindings)
	return res
}

func (e *Engine) filter(ctx context.Context, cfg *config.Config) (Result, error) {
	src, err := e.diffSource(cfg)
	if err != nil {
		return Result{}, err
	}

	findings, err := cppcheck.ParseFile(cfg.Filter.Input)
	if err != nil {
		return Result{}, err
	}

	misra := misraFindings(findings)
	files := changedFileCandidates(misra)
	e.verbosef(cfg, "%d findings, %d MISRA, %d files to diff against %s", len(findings), len(misra), len(files), cfg.Filter.GitDiff)

	cache := diff.NewCache(src, e.Stderr)
	if err := e.prefetch(ctx, cfg, cache, files); err != nil {
		return Result{}, err
	}

	kept := selectChanged(ctx, cache, misra)

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("create output sinks: %w", err)
	}

	res := Result{Considered: len(misra), Kept: len(kept)}
	var writeErr error
	write := func(v any) {
		if err := outMgr.Write(v); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	write(output.Event{
		Type:  output.EventRunStarted,
		RunID: e.runID(),
		Input: cfg.Filter.Input,
		Range: cfg.Filter.GitDiff,
	})
	for _, f := range kept {
		write(f)
	}
	write(output.Event{
		Type: output.EventRunFinished,
		RunCounts: &output.RunCounts{
			Considered: res.Considered,
			Kept:       res.Kept,
			ExitCode:   exitCodeForRun(res.Kept, cfg.Filter.FailOnFindings),
		},
	})

	if err := outMgr.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return Result{}, writeErr
	}

	fmt.Fprintf(e.StatusWriter(cfg), "Found %d issues in changed lines\n", res.Kept)
	return res, nil
}

func (e *Engine) runID() string {
	if e.newRunID == nil {
		return uuid.NewString()
	}
	return e.newRunID()
}

func (e *Engine) diffSource(cfg *config.Config) (diff.Source, error) {
	if e.Source != nil {
		if err := diff.ValidateRange(cfg.Filter.GitDiff); err != nil {
			return nil, err
		}
		return e.Source, nil
	}
	return diff.NewGit(cfg.Filter.SourceDir, cfg.Filter.GitDiff)
}

func (e *Engine) prefetch(ctx context.Context, cfg *config.Config, cache *diff.Cache, files []string) error {
	if len(files) == 0 {
		return nil
	}

	var done func(string)
	var bar *progressbar.ProgressBar
	if cfg.Filter.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(e.Stderr),
			progressbar.OptionSetDescription("git diff"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		done = func(string) { _ = bar.Add(1) }
	}

	err := cache.Prefetch(ctx, files, cfg.Filter.Concurrency, done)
	if bar != nil {
		_ = bar.Finish()
	}
	return err
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// CSV Sink
	csvSink, err := output.NewCSVSink(cfg.Filter.Output, cfg.Filter.MaxSize, e.StatusWriter(cfg))
	if err != nil {
		return nil, err
	}
	if err := outMgr.AddSink("csv", csvSink); err != nil {
		_ = outMgr.Close()
		return nil, err
	}

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink("console", output.NewConsoleSink(e.Stdout, cfg.Output.ConsoleFormat)); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink("file", fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// SARIF Sink
	if cfg.Output.SARIF != "" {
		ss, err := output.NewSARIFSink(cfg.Output.SARIF, e.Version, cfg.Filter.SourceDir)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink("sarif", ss); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink("report", rs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}
