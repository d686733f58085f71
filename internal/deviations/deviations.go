// Package deviations loads MISRA C:2012 deviation lists and turns their
// entries into cppcheck rule identifiers.
package deviations

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// RulePrefix is the cppcheck MISRA addon's identifier prefix.
const RulePrefix = "misra-c2012-"

// ErrNoDeviations is returned for a document without a "deviations" array.
var ErrNoDeviations = errors.New(`document has no "deviations" array`)

var ruleRef = regexp.MustCompile(`(Rule|Directive)\s+(\d+\.\d+)`)

// Deviation is one entry of a Coverity MISRA config.
type Deviation struct {
	Deviation string `json:"deviation"`
	Reason    string `json:"reason,omitempty"`
}

// RuleID returns the cppcheck identifier for the first rule or directive
// reference in the deviation text.
func (d Deviation) RuleID() (string, bool) {
	m := ruleRef.FindStringSubmatch(d.Deviation)
	if m == nil {
		return "", false
	}
	return RulePrefix + m[2], true
}

type document struct {
	Deviations *[]Deviation `json:"deviations"`
}

// Parse decodes a Coverity MISRA config.
func Parse(data []byte) ([]Deviation, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse deviation list: %w", err)
	}
	if doc.Deviations == nil {
		return nil, ErrNoDeviations
	}
	return *doc.Deviations, nil
}

// ExtractRules maps deviations to rule identifiers, skipping entries with no
// rule or directive reference. Order and duplicates are preserved.
func ExtractRules(devs []Deviation) []string {
	var rules []string
	for _, d := range devs {
		if id, ok := d.RuleID(); ok {
			rules = append(rules, id)
		}
	}
	return rules
}
