package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"misragate/internal/cppcheck"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(b)
}

func TestCSVSink_WritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "misra.csv")
	s, err := NewCSVSink(path, 0, nil)
	if err != nil {
		t.Fatalf("NewCSVSink error: %v", err)
	}

	f := cppcheck.Finding{
		ID:       "misra-c2012-10.4",
		Severity: "style",
		Locations: []cppcheck.Location{
			{File: "tasks.c", Line: 12, Column: 5},
			{File: "queue.c", Line: 7},
		},
	}
	if err := s.Write(Event{Type: EventRunStarted}); err != nil {
		t.Fatalf("Write(event): %v", err)
	}
	if err := s.Write(f); err != nil {
		t.Fatalf("Write(finding): %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "misra-c2012-rule,severity,file,line,column\n" +
		"10.4,style,tasks.c,12,5\n" +
		"10.4,style,queue.c,7,0\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("unexpected csv:\nwant %q\ngot  %q", want, got)
	}
	if s.Rows() != 2 {
		t.Fatalf("Rows: want 2, got %d", s.Rows())
	}
}

func TestCSVSink_EmptyHasHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "misra.csv")
	s, err := NewCSVSink(path, 0, nil)
	if err != nil {
		t.Fatalf("NewCSVSink error: %v", err)
	}
	_ = s.Close()

	if got := readFile(t, path); got != "misra-c2012-rule,severity,file,line,column\n" {
		t.Fatalf("unexpected csv: %q", got)
	}
}

func TestCSVSink_QuotesFieldsWithCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "misra.csv")
	s, _ := NewCSVSink(path, 0, nil)
	_ = s.Write(cppcheck.Finding{
		ID:        "misra-c2012-8.4",
		Severity:  "style",
		Locations: []cppcheck.Location{{File: "dir,with,commas/a.c", Line: 1, Column: 1}},
	})
	_ = s.Close()

	if got := readFile(t, path); !strings.Contains(got, `8.4,style,"dir,with,commas/a.c",1,1`) {
		t.Fatalf("expected quoted file field, got %q", got)
	}
}

func TestCSVSink_MaxSize(t *testing.T) {
	header := len("misra-c2012-rule,severity,file,line,column\n")
	row := len("10.4,style,a.c,1,1\n")

	tests := []struct {
		name     string
		maxSize  int64
		wantRows int
		capped   bool
	}{
		{name: "unlimited", maxSize: 0, wantRows: 3},
		{name: "exact fit", maxSize: int64(header + 3*row), wantRows: 3},
		{name: "room for two", maxSize: int64(header + 2*row + row/2), wantRows: 2, capped: true},
		{name: "header only", maxSize: 1, wantRows: 0, capped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "misra.csv")
			var notice bytes.Buffer
			s, err := NewCSVSink(path, tt.maxSize, &notice)
			if err != nil {
				t.Fatalf("NewCSVSink error: %v", err)
			}
			for i := 0; i < 3; i++ {
				if err := s.Write(cppcheck.Finding{
					ID:        "misra-c2012-10.4",
					Severity:  "style",
					Locations: []cppcheck.Location{{File: "a.c", Line: 1, Column: 1}},
				}); err != nil {
					t.Fatalf("Write: %v", err)
				}
			}
			_ = s.Close()

			if s.Rows() != tt.wantRows {
				t.Fatalf("Rows: want %d, got %d", tt.wantRows, s.Rows())
			}
			if s.Capped() != tt.capped {
				t.Fatalf("Capped: want %v, got %v", tt.capped, s.Capped())
			}
			got := readFile(t, path)
			if !strings.HasPrefix(got, "misra-c2012-rule,") {
				t.Fatalf("header must always be written, got %q", got)
			}
			if tt.capped {
				if strings.Count(notice.String(), "Output file size limit") != 1 {
					t.Fatalf("want exactly one limit notice, got %q", notice.String())
				}
				if int64(len(got)) > tt.maxSize && tt.wantRows > 0 {
					t.Fatalf("file exceeds max size: %d > %d", len(got), tt.maxSize)
				}
			} else if notice.Len() != 0 {
				t.Fatalf("unexpected notice: %q", notice.String())
			}
		})
	}
}

func TestCSVSink_LimitNoticeText(t *testing.T) {
	var notice bytes.Buffer
	s, _ := NewCSVSink(filepath.Join(t.TempDir(), "misra.csv"), 10, &notice)
	_ = s.Write(sampleFinding())
	_ = s.Close()

	if notice.String() != "Output file size limit (10 bytes) reached\n" {
		t.Fatalf("unexpected notice: %q", notice.String())
	}
}
