package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
)

const rawHost = "raw.githubusercontent.com"

// maxDownloadBytes bounds any single download.
const maxDownloadBytes = 16 << 20

// RawFile identifies a repository file as addressed by a raw.githubusercontent.com URL.
type RawFile struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

func (f RawFile) String() string {
	return fmt.Sprintf("%s/%s@%s:%s", f.Owner, f.Repo, f.Ref, f.Path)
}

// ParseRawURL recognizes URLs of the form
//
//	https://raw.githubusercontent.com/OWNER/REPO/REF/PATH
//	https://raw.githubusercontent.com/OWNER/REPO/refs/heads/REF/PATH
//
// and reports false for anything else.
func ParseRawURL(raw string) (RawFile, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return RawFile{}, false
	}
	if !strings.EqualFold(u.Hostname(), rawHost) {
		return RawFile{}, false
	}

	parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
	if len(parts) >= 6 && parts[2] == "refs" && (parts[3] == "heads" || parts[3] == "tags") {
		return RawFile{Owner: parts[0], Repo: parts[1], Ref: parts[4], Path: strings.Join(parts[5:], "/")}, true
	}
	if len(parts) < 4 {
		return RawFile{}, false
	}
	return RawFile{Owner: parts[0], Repo: parts[1], Ref: parts[2], Path: strings.Join(parts[3:], "/")}, true
}

// Fetch downloads the document at rawURL. raw.githubusercontent.com URLs are
// resolved through the repository contents API so the configured token and
// API base URL apply. When the API refuses (anonymous rate limit, outage) the
// raw URL is fetched directly. Every other URL is a plain unauthenticated GET.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f, ok := ParseRawURL(rawURL)
	if !ok {
		return get(ctx, c.Plain, rawURL)
	}

	body, apiErr := c.DownloadRaw(ctx, f)
	if apiErr == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, apiErr
	}
	body, rawErr := get(ctx, c.Plain, rawURL)
	if rawErr != nil {
		return nil, errors.Join(apiErr, rawErr)
	}
	return body, nil
}

// DownloadRaw reads a single file from a repository at a ref.
func (c *Client) DownloadRaw(ctx context.Context, f RawFile) ([]byte, error) {
	fc, _, _, err := c.Client.Repositories.GetContents(ctx, f.Owner, f.Repo, f.Path, &github.RepositoryContentGetOptions{Ref: f.Ref})
	if err != nil {
		return nil, fmt.Errorf("get contents %s: %w", f, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("get contents %s: path is a directory", f)
	}

	content, decodeErr := fc.GetContent()
	if decodeErr == nil && content != "" {
		return []byte(content), nil
	}
	// Files above the contents API inline limit come back without content.
	if dl := fc.GetDownloadURL(); dl != "" {
		return get(ctx, c.HTTP, dl)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode contents %s: %w", f, decodeErr)
	}
	return []byte(content), nil
}

func get(ctx context.Context, hc *http.Client, rawURL string) ([]byte, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %d %s", rawURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(body) > maxDownloadBytes {
		return nil, fmt.Errorf("read %s: response exceeds %d bytes", rawURL, maxDownloadBytes)
	}
	return body, nil
}
