package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"misragate/internal/cppcheck"
	"misragate/internal/sarif"
)

// SARIFSink collects findings and writes a SARIF 2.1.0 log on Close, suitable
// for code-scanning upload.
type SARIFSink struct {
	path        string
	toolVersion string
	root        string
	mu          sync.Mutex
	findings    []cppcheck.Finding
	runID       string
	diffRange   string
}

// NewSARIFSink writes to path. Absolute finding paths below sourceRoot are
// made relative to it.
func NewSARIFSink(path, toolVersion, sourceRoot string) (*SARIFSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sarif path required")
	}
	s := &SARIFSink{path: path, toolVersion: toolVersion}
	if sourceRoot != "" {
		root, err := filepath.Abs(sourceRoot)
		if err != nil {
			return nil, fmt.Errorf("resolve source root: %w", err)
		}
		s.root = root
	}
	return s, nil
}

func (s *SARIFSink) artifactURI(file string) string {
	if s.root != "" && filepath.IsAbs(file) {
		rel, err := filepath.Rel(s.root, file)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(file)
}

func (s *SARIFSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := v.(type) {
	case cppcheck.Finding:
		s.findings = append(s.findings, t)
	case Event:
		if t.Type == EventRunStarted {
			s.runID = t.RunID
			s.diffRange = t.Range
		}
	}
	return nil
}

func (s *SARIFSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.build()

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create sarif file: %w", err)
	}
	if err := sarif.NewEncoder(f).Encode(log); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *SARIFSink) build() *sarif.Log {
	run := sarif.Run{
		Tool:    sarif.Tool{Driver: sarif.Driver{Name: "misragate", Version: s.toolVersion}},
		Results: []sarif.Result{},
	}
	if s.runID != "" {
		run.AutomationDetails = &sarif.AutomationDetails{ID: "misragate/" + s.diffRange + "/", GUID: s.runID}
	}
	if s.diffRange != "" {
		run.Properties = map[string]any{"gitDiff": s.diffRange}
	}

	seen := make(map[string]struct{})
	for _, f := range s.findings {
		if _, ok := seen[f.ID]; !ok {
			seen[f.ID] = struct{}{}
			rd := sarif.ReportingDescriptor{ID: f.ID}
			if f.IsMISRA() {
				rd.ShortDescription = &sarif.Message{Text: "MISRA C:2012 Rule " + f.Rule()}
			}
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, rd)
		}

		res := sarif.Result{
			RuleID:  f.ID,
			Level:   sarif.Level(f.Severity),
			Message: sarif.Message{Text: f.Msg},
		}
		for _, loc := range f.Locations {
			sl := sarif.Location{
				PhysicalLocation: sarif.PhysicalLocation{
					ArtifactLocation: sarif.ArtifactLocation{URI: s.artifactURI(loc.File)},
				},
			}
			if loc.Line > 0 {
				sl.PhysicalLocation.Region = &sarif.Region{StartLine: loc.Line, StartColumn: loc.Column}
			}
			if loc.Info != "" {
				sl.Message = &sarif.Message{Text: loc.Info}
			}
			res.Locations = append(res.Locations, sl)
		}
		run.Results = append(run.Results, res)
	}
	sort.Slice(run.Tool.Driver.Rules, func(i, j int) bool {
		return run.Tool.Driver.Rules[i].ID < run.Tool.Driver.Rules[j].ID
	})

	log := sarif.NewLog()
	log.Runs = append(log.Runs, run)
	return log
}
