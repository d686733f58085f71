// Package diff computes which lines of a file a git diff range changed.
package diff

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// linearScanMax is the largest set searched linearly.
const linearScanMax = 5

var hunkNewRange = regexp.MustCompile(`\+(\d+)(?:,(\d+))?`)

// Range is an inclusive block of changed new-file lines.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Contains(line int) bool {
	return r.Start <= line && line <= r.End
}

// Set is a list of ranges sorted by start line.
type Set []Range

// NewSet copies and sorts rs.
func NewSet(rs ...Range) Set {
	s := make(Set, len(rs))
	copy(s, rs)
	sort.Slice(s, func(i, j int) bool {
		if s[i].Start != s[j].Start {
			return s[i].Start < s[j].Start
		}
		return s[i].End < s[j].End
	})
	return s
}

// Contains reports whether line falls in any range of the set.
func (s Set) Contains(line int) bool {
	if len(s) <= linearScanMax {
		for _, r := range s {
			if r.Contains(line) {
				return true
			}
		}
		return false
	}

	// First range starting after line; its predecessor is the only candidate
	// in a set of non-overlapping ranges.
	i := sort.Search(len(s), func(i int) bool { return s[i].Start > line })
	return i > 0 && s[i-1].Contains(line)
}

// ParseRanges extracts the new-file ranges from the hunk headers of a
// zero-context unified diff. A hunk that adds no lines (count 0) yields no range.
func ParseRanges(output string) Set {
	var ranges []Range
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "@@") {
			continue
		}
		if r, ok := parseHunkHeader(line); ok {
			ranges = append(ranges, r)
		}
	}
	return NewSet(ranges...)
}

func parseHunkHeader(line string) (Range, bool) {
	m := hunkNewRange.FindStringSubmatch(line)
	if m == nil {
		return Range{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Range{}, false
	}
	count := 1
	if m[2] != "" {
		count, err = strconv.Atoi(m[2])
		if err != nil {
			return Range{}, false
		}
	}
	if count <= 0 {
		return Range{}, false
	}
	return Range{Start: start, End: start + count - 1}, true
}
