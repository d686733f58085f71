package output

import "misragate/internal/cppcheck"

// Event types of the NDJSON stream.
const (
	EventRunStarted  = "run.started"
	EventFinding     = "finding"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started (input, range, run id)
// - finding (one per kept finding, fields flattened)
// - run.finished (counts, exit code)
//
// JSON mode remains an aggregate array of cppcheck.Finding values.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	*cppcheck.Finding
	Input string `json:"input,omitempty"`
	Range string `json:"range,omitempty"`
	*RunCounts
}

// RunCounts is carried by run.finished only. Zero counts are still written.
type RunCounts struct {
	Considered int `json:"considered"`
	Kept       int `json:"kept"`
	ExitCode   int `json:"exit_code"`
}

func eventFromFinding(f cppcheck.Finding) Event {
	return Event{Type: EventFinding, Finding: &f}
}
