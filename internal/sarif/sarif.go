// Package sarif provides types and helpers for emitting SARIF output.
package sarif

import (
	"encoding/json"
	"io"
)

// Version is the SARIF schema version.
const Version = "2.1.0"

// Schema is the SARIF 2.1.0 JSON schema location.
const Schema = "https://json.schemastore.org/sarif-2.1.0.json"

// Log is the top-level SARIF structure.
type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single analysis run.
type Run struct {
	Tool              Tool               `json:"tool"`
	AutomationDetails *AutomationDetails `json:"automationDetails,omitempty"`
	Results           []Result           `json:"results"`
	Properties        map[string]any     `json:"properties,omitempty"`
}

// Tool describes the analysis tool.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver describes the tool's identity and the rules it reported.
type Driver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version,omitempty"`
	InformationURI string                `json:"informationUri,omitempty"`
	Rules          []ReportingDescriptor `json:"rules,omitempty"`
}

// ReportingDescriptor describes one rule.
type ReportingDescriptor struct {
	ID               string   `json:"id"`
	ShortDescription *Message `json:"shortDescription,omitempty"`
}

// AutomationDetails identifies the run for result matching across uploads.
type AutomationDetails struct {
	ID   string `json:"id,omitempty"`
	GUID string `json:"guid,omitempty"`
}

// Result is a single finding.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level,omitempty"` // error, warning, note
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message contains the finding's text.
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	Message          *Message         `json:"message,omitempty"`
}

// PhysicalLocation describes a file location.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation describes a file path.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region describes a span within a file.
type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// NewLog creates a new SARIF log with default values.
func NewLog() *Log {
	return &Log{
		Version: Version,
		Schema:  Schema,
		Runs:    []Run{},
	}
}

// Level maps a cppcheck severity to a SARIF result level.
func Level(severity string) string {
	switch severity {
	case "error":
		return "error"
	case "warning", "portability", "performance":
		return "warning"
	default:
		return "note"
	}
}

// Encoder wraps a JSON encoder with SARIF-friendly defaults.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder creates an indented JSON encoder for SARIF logs.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &Encoder{enc: enc}
}

// Encode writes the SARIF log.
func (e *Encoder) Encode(log *Log) error {
	return e.enc.Encode(log)
}
