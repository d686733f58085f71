package engine

import (
	"context"

	"misragate/internal/cppcheck"
	"misragate/internal/diff"
)

func misraFindings(findings []cppcheck.Finding) []cppcheck.Finding {
	var out []cppcheck.Finding
	for _, f := range findings {
		if f.IsMISRA() {
			out = append(out, f)
		}
	}
	return out
}

func lineAddressable(loc cppcheck.Location) bool {
	return loc.File != "" && loc.Line > 0
}

// changedFileCandidates lists, in first-seen order, the file of each
// finding's first addressable location. Those are diffed in any case; later
// locations are only looked up by selectChanged when earlier ones miss.
func changedFileCandidates(findings []cppcheck.Finding) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, f := range findings {
		for _, loc := range f.Locations {
			if !lineAddressable(loc) {
				continue
			}
			if _, ok := seen[loc.File]; !ok {
				seen[loc.File] = struct{}{}
				files = append(files, loc.File)
			}
			break
		}
	}
	return files
}

// selectChanged keeps findings with at least one location on a changed line.
// Locations are checked in order and the first hit decides.
func selectChanged(ctx context.Context, cache *diff.Cache, findings []cppcheck.Finding) []cppcheck.Finding {
	var kept []cppcheck.Finding
	for _, f := range findings {
		for _, loc := range f.Locations {
			if !lineAddressable(loc) {
				continue
			}
			if cache.Get(ctx, loc.File).Contains(loc.Line) {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept
}
