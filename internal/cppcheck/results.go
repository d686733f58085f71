// Package cppcheck reads cppcheck's XML (version 2) results.
package cppcheck

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MISRAPrefix marks findings produced by cppcheck's MISRA C:2012 addon.
const MISRAPrefix = "misra-c2012"

// Finding is one <error> element.
type Finding struct {
	ID        string     `json:"id"`
	Severity  string     `json:"severity,omitempty"`
	Msg       string     `json:"msg,omitempty"`
	Verbose   string     `json:"verbose,omitempty"`
	CWE       string     `json:"cwe,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}

// Location is one <location> of a finding. Line and Column are 0 when absent.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Info   string `json:"info,omitempty"`
}

// IsMISRA reports whether the finding comes from the MISRA addon.
func (f Finding) IsMISRA() bool {
	return strings.HasPrefix(f.ID, MISRAPrefix)
}

// Rule returns the rule number, e.g. "10.4" for "misra-c2012-10.4".
func (f Finding) Rule() string {
	return strings.ReplaceAll(f.ID, MISRAPrefix+"-", "")
}

type xmlError struct {
	ID        string        `xml:"id,attr"`
	Severity  string        `xml:"severity,attr"`
	Msg       string        `xml:"msg,attr"`
	Verbose   string        `xml:"verbose,attr"`
	CWE       string        `xml:"cwe,attr"`
	Locations []xmlLocation `xml:"location"`
}

type xmlLocation struct {
	File   string `xml:"file,attr"`
	Line   string `xml:"line,attr"`
	Column string `xml:"column,attr"`
	Info   string `xml:"info,attr"`
}

// Parse reads every <error> element of a results document, at any depth,
// in document order.
func Parse(r io.Reader) ([]Finding, error) {
	dec := xml.NewDecoder(r)
	var findings []Finding
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse cppcheck results: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if se.Name.Local != "error" {
			continue
		}

		var raw xmlError
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return nil, fmt.Errorf("parse cppcheck results: %w", err)
		}
		f, err := raw.finding()
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}

	if !sawRoot {
		return nil, errors.New("parse cppcheck results: document is empty")
	}
	return findings, nil
}

// ParseFile opens and parses a results file.
func ParseFile(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cppcheck results: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (e xmlError) finding() (Finding, error) {
	f := Finding{
		ID:       e.ID,
		Severity: e.Severity,
		Msg:      e.Msg,
		Verbose:  e.Verbose,
		CWE:      e.CWE,
	}
	for _, l := range e.Locations {
		// Only MISRA lines are matched against diffs; anything else that
		// does not parse is kept as 0.
		line, err := atoiOrZero(l.Line)
		if err != nil && f.IsMISRA() {
			return Finding{}, fmt.Errorf("finding %s: invalid line %q", e.ID, l.Line)
		}
		col, _ := atoiOrZero(l.Column)
		f.Locations = append(f.Locations, Location{File: l.File, Line: line, Column: col, Info: l.Info})
	}
	return f, nil
}

func atoiOrZero(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
