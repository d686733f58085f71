package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"misragate/internal/cppcheck"
)

// ReportSink writes a Markdown summary of the kept findings on Close, sized
// for a pull request comment.
type ReportSink struct {
	path       string
	mu         sync.Mutex
	findings   []cppcheck.Finding
	input      string
	diffRange  string
	considered int
	finished   bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	return &ReportSink{path: path}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case cppcheck.Finding:
		s.findings = append(s.findings, t)
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.input = t.Input
			s.diffRange = t.Range
		case EventRunFinished:
			if t.RunCounts != nil {
				s.considered = t.Considered
			}
			s.finished = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(s.render()), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func (s *ReportSink) render() string {
	var b strings.Builder
	b.WriteString("# MISRA C:2012 findings on changed lines\n\n")

	if s.diffRange != "" || s.input != "" {
		fmt.Fprintf(&b, "Diff range: `%s` · Results: `%s`\n\n", s.diffRange, s.input)
	}

	if len(s.findings) == 0 {
		b.WriteString("✅ No MISRA violations on changed lines.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**%d findings** on changed lines", len(s.findings))
	if s.finished {
		fmt.Fprintf(&b, " (%d MISRA findings considered)", s.considered)
	}
	b.WriteString(".\n\n")

	counts := make(map[string]int)
	for _, f := range s.findings {
		counts[f.Rule()]++
	}
	rules := make([]string, 0, len(counts))
	for r := range counts {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if counts[rules[i]] != counts[rules[j]] {
			return counts[rules[i]] > counts[rules[j]]
		}
		return compareRuleNumbers(rules[i], rules[j]) < 0
	})

	b.WriteString("## By rule\n\n")
	b.WriteString("| Rule | Findings |\n|---|---:|\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(r), counts[r])
	}

	b.WriteString("\n## Findings\n\n")
	b.WriteString("| File | Line | Column | Severity | Rule | Message |\n|---|---:|---:|---|---|---|\n")
	for _, f := range s.findings {
		for _, loc := range f.Locations {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %s | %s | %s |\n",
				escapeCell(loc.File), loc.Line, loc.Column, escapeCell(f.Severity), escapeCell(f.Rule()), escapeCell(f.Msg))
		}
	}
	return b.String()
}

// compareRuleNumbers orders "8.10" after "8.4".
func compareRuleNumbers(a, b string) int {
	var amaj, amin, bmaj, bmin int
	_, errA := fmt.Sscanf(a, "%d.%d", &amaj, &amin)
	_, errB := fmt.Sscanf(b, "%d.%d", &bmaj, &bmin)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	if amaj != bmaj {
		return amaj - bmaj
	}
	return amin - bmin
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
