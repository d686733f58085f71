package suppress

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"misragate/internal/deviations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(raw), "\n"), "file must end with a newline")
	return strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
}

func TestGenerate_WritesBaselineThenRules(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ci", "suppressions.txt")
	fetch := fetchFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"deviations":[{"deviation":"Rule 1.2"},{"deviation":"no ref"},{"deviation":"Directive 4.1"}]}`), nil
	})
	var warn bytes.Buffer

	sum, err := Generate(context.Background(), fetch, deviations.Source{URL: "https://example.com/x"}, []string{"unusedFunction"}, path, &warn)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"missingIncludeSystem",
		"checkersReport",
		"unmatchedSuppression",
		"misra-config",
		"misra-c2012-1.2",
		"misra-c2012-4.1",
		"unusedFunction",
	}, readLines(t, path))
	assert.Equal(t, 2, sum.Rules)
	assert.Equal(t, 1, sum.Extra)
	assert.NoError(t, sum.FetchErr)
	assert.Empty(t, warn.String())
	assert.Equal(t, "Generated "+path+" with 2 MISRA rules", sum.String())
}

func TestGenerate_NetworkFailureFallsBackToBaseline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "suppressions.txt")
	fetch := fetchFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("dial tcp: lookup raw.githubusercontent.com: no such host")
	})
	var warn bytes.Buffer

	sum, err := Generate(context.Background(), fetch, deviations.Source{URL: "https://example.com/x"}, nil, path, &warn)
	require.NoError(t, err)

	assert.Equal(t, Baseline, readLines(t, path))
	assert.Zero(t, sum.Rules)
	assert.Error(t, sum.FetchErr)
	assert.Contains(t, warn.String(), "Warning: Could not fetch MISRA rules from URL (dial tcp")
	assert.Contains(t, warn.String(), "Generating config with static rules only.")
	assert.Equal(t, "Generated "+path+" with static rules only (no MISRA rules from URL)", sum.String())
}

func TestGenerate_InvalidJSONFallsBackToBaseline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "suppressions.txt")
	fetch := fetchFunc(func(context.Context, string) ([]byte, error) {
		return []byte("404: Not Found"), nil
	})

	sum, err := Generate(context.Background(), fetch, deviations.Source{URL: "https://example.com/x"}, nil, path, nil)
	require.NoError(t, err)
	assert.Equal(t, Baseline, readLines(t, path))
	assert.Error(t, sum.FetchErr)
}

func TestGenerate_WriteFailureIsReturned(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	fetch := fetchFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"deviations":[]}`), nil
	})
	_, err := Generate(context.Background(), fetch, deviations.Source{URL: "https://example.com/x"}, nil, filepath.Join(blocker, "suppressions.txt"), nil)
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	t.Parallel()
	assert.EqualError(t, Write(failingWriter{}, []string{"misra-c2012-1.2"}), "disk full")
}
