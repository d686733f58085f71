package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"misragate/internal/cppcheck"
)

// CSVHeader is the first row of every CSV report.
var CSVHeader = []string{"misra-c2012-rule", "severity", "file", "line", "column"}

// CSVSink writes one row per location of every finding. With a positive
// maxSize, the first row that would push the file past maxSize bytes stops
// all further rows and a notice is printed once.
type CSVSink struct {
	path    string
	file    *os.File
	w       *bufio.Writer
	mu      sync.Mutex
	maxSize int64
	written int64
	rows    int
	capped  bool
	notice  io.Writer
	scratch bytes.Buffer
}

func NewCSVSink(path string, maxSize int64, notice io.Writer) (*CSVSink, error) {
	if path == "" {
		return nil, fmt.Errorf("csv output path required")
	}
	if notice == nil {
		notice = io.Discard
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv file: %w", err)
	}

	s := &CSVSink{
		path:    path,
		file:    f,
		w:       bufio.NewWriter(f),
		maxSize: maxSize,
		notice:  notice,
	}
	// The header is always written, even when it alone exceeds the cap.
	row, err := s.encode(CSVHeader)
	if err == nil {
		_, err = s.w.Write(row)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	s.written = int64(len(row))
	return s, nil
}

func (s *CSVSink) Write(v any) error {
	f, ok := v.(cppcheck.Finding)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rule := f.Rule()
	for _, loc := range f.Locations {
		if s.capped {
			return nil
		}
		row, err := s.encode([]string{rule, f.Severity, loc.File, strconv.Itoa(loc.Line), strconv.Itoa(loc.Column)})
		if err != nil {
			return err
		}
		if s.maxSize > 0 && s.written+int64(len(row)) > s.maxSize {
			s.capped = true
			fmt.Fprintf(s.notice, "Output file size limit (%d bytes) reached\n", s.maxSize)
			return nil
		}
		if _, err := s.w.Write(row); err != nil {
			return err
		}
		s.written += int64(len(row))
		s.rows++
	}
	return nil
}

// Rows reports how many data rows were written.
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Capped reports whether the size limit stopped output.
func (s *CSVSink) Capped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capped
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.w.Flush()
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *CSVSink) encode(record []string) ([]byte, error) {
	s.scratch.Reset()
	cw := csv.NewWriter(&s.scratch)
	if err := cw.Write(record); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.scratch.Bytes()...), nil
}
