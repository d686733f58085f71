package sarif_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"misragate/internal/sarif"
)

type failingWriter struct{}

func (failingWriter) Write(_ []byte) (int, error) {
	return 0, errors.New("write failure")
}

func TestNewLog_ReturnsInitializedLog(t *testing.T) {
	t.Parallel()

	log := sarif.NewLog()
	if log.Version != sarif.Version {
		t.Fatalf("version mismatch: got %s", log.Version)
	}
	if log.Schema != sarif.Schema {
		t.Fatalf("schema mismatch: got %s", log.Schema)
	}
	if log.Runs == nil || len(log.Runs) != 0 {
		t.Fatalf("runs slice should be initialized and empty, got %v", log.Runs)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"error":       "error",
		"warning":     "warning",
		"portability": "warning",
		"performance": "warning",
		"style":       "note",
		"information": "note",
		"":            "note",
	}
	for severity, want := range tests {
		if got := sarif.Level(severity); got != want {
			t.Errorf("Level(%q) = %q, want %q", severity, got, want)
		}
	}
}

func TestEncoder(t *testing.T) {
	t.Parallel()

	log := sarif.NewLog()
	log.Runs = append(log.Runs, sarif.Run{
		Tool: sarif.Tool{Driver: sarif.Driver{Name: "misragate"}},
		Results: []sarif.Result{{
			RuleID:  "misra-c2012-10.4",
			Level:   "note",
			Message: sarif.Message{Text: "misra violation"},
			Locations: []sarif.Location{{
				PhysicalLocation: sarif.PhysicalLocation{
					ArtifactLocation: sarif.ArtifactLocation{URI: "tasks.c"},
					Region:           &sarif.Region{StartLine: 16, StartColumn: 5},
				},
			}},
		}},
	})

	var buf bytes.Buffer
	if err := sarif.NewEncoder(&buf).Encode(log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\n  \"version\"") {
		t.Fatalf("expected indented output, got %s", out)
	}
	if !strings.Contains(out, `"ruleId": "misra-c2012-10.4"`) {
		t.Fatalf("expected rule id in output, got %s", out)
	}

	if err := sarif.NewEncoder(failingWriter{}).Encode(log); err == nil || !strings.Contains(err.Error(), "write failure") {
		t.Fatalf("expected write failure, got %v", err)
	}
}
