package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var validRange = regexp.MustCompile(`^[a-zA-Z0-9._/-]+\.\.\.[a-zA-Z0-9._/-]+$`)

// ErrInvalidRange is returned for diff ranges not of the form A...B.
var ErrInvalidRange = errors.New("invalid git diff range format")

// ValidateRange accepts only symmetric-difference ranges such as
// origin/main...HEAD built from ref-safe characters.
func ValidateRange(r string) error {
	if !validRange.MatchString(r) {
		return fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}
	return nil
}

// Source yields the changed ranges of one file.
type Source interface {
	Ranges(ctx context.Context, file string) (Set, error)
}

// RangeError carries the file whose diff could not be computed.
type RangeError struct {
	File string
	Err  error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("git diff %s: %v", e.File, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }

// Git runs `git -C Dir diff -U0 Range -- FILE`.
type Git struct {
	Dir   string
	Range string
	// Binary defaults to "git".
	Binary string
}

// NewGit validates diffRange and returns a Git source rooted at dir.
func NewGit(dir, diffRange string) (*Git, error) {
	if err := ValidateRange(diffRange); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "."
	}
	return &Git{Dir: dir, Range: diffRange}, nil
}

func (g *Git) Ranges(ctx context.Context, file string) (Set, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, "-C", g.Dir, "diff", "-U0", g.Range, "--", file)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &RangeError{File: file, Err: ctx.Err()}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, &RangeError{File: file, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return nil, &RangeError{File: file, Err: err}
	}
	return ParseRanges(stdout.String()), nil
}
