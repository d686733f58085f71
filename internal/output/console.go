package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"misragate/internal/cppcheck"

	"github.com/fatih/color"
)

type ConsoleSink struct {
	writer   io.Writer
	format   string // "text", "json", "ndjson"
	mu       sync.Mutex
	findings []cppcheck.Finding // For JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format}
}

var severityColors = map[string]*color.Color{
	"error":       color.New(color.FgRed, color.Bold),
	"warning":     color.New(color.FgYellow),
	"style":       color.New(color.FgCyan),
	"performance": color.New(color.FgMagenta),
	"portability": color.New(color.FgMagenta),
	"information": color.New(color.Faint),
}

func colorSeverity(severity string) string {
	if c, ok := severityColors[severity]; ok {
		return c.Sprint(severity)
	}
	return severity
}

// FormatText renders one line per location: file:line: severity: msg [id].
func FormatText(f cppcheck.Finding) []string {
	severity := f.Severity
	if severity == "" {
		severity = "unknown"
	}
	lines := make([]string, 0, len(f.Locations))
	for _, loc := range f.Locations {
		lines = append(lines, fmt.Sprintf("%s:%d: %s: %s [%s]", loc.File, loc.Line, colorSeverity(severity), f.Msg, f.ID))
	}
	return lines
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		f, ok := v.(cppcheck.Finding)
		if !ok {
			// Ignore lifecycle events in JSON console mode.
			return nil
		}
		s.findings = append(s.findings, f)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
		case cppcheck.Finding:
			if err := encoder.Encode(eventFromFinding(t)); err != nil {
				return err
			}
		default:
			return nil
		}
		return flush(s.writer)
	case "text":
		f, ok := v.(cppcheck.Finding)
		if !ok {
			return nil
		}
		for _, line := range FormatText(f) {
			if _, err := fmt.Fprintln(s.writer, line); err != nil {
				return err
			}
		}
		return flush(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		findings := s.findings
		if findings == nil {
			findings = []cppcheck.Finding{}
		}
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(findings); err != nil {
			return err
		}
		return flush(s.writer)
	case "text", "ndjson":
		return nil
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

// flush pushes buffered console output through after every write.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
