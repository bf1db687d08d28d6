// Package fetch resolves a patch source argument into raw bytes. A
// source is a filesystem path, "-" for standard input, or an http(s)
// URL that is downloaded and then treated as an in-memory buffer.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	// ErrEmptyInput is returned when the source yields zero bytes.
	ErrEmptyInput = errors.New("fetch: empty patch input")
	// ErrFetchFailed is returned for any URL download failure,
	// including non-2xx responses.
	ErrFetchFailed = errors.New("fetch: download failed")
)

//go:generate mockgen -destination=../../mocks/mock_fetcher.go -package=mocks github.com/sevigo/patchwork/internal/fetch Fetcher

// Fetcher downloads a patch from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// maxPatchSize bounds downloads; patches larger than this are rejected
// rather than buffered.
const maxPatchSize = 64 << 20

// HTTPFetcher is the production Fetcher backed by net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds a fetcher with explicit connection timeouts so
// a dead mirror fails fast instead of hanging the CLI.
func NewHTTPFetcher() *HTTPFetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPFetcher{client: &http.Client{
		Transport: transport,
		Timeout:   2 * time.Minute,
	}}
}

// Fetch downloads url and returns the body bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s for %s", ErrFetchFailed, resp.Status, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPatchSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(data) > maxPatchSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrFetchFailed, maxPatchSize)
	}
	return data, nil
}

// IsURL reports whether the source argument names a download rather
// than a local file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Read resolves src into patch bytes using f for URL sources. Zero
// bytes from any source is an input error.
func Read(ctx context.Context, src string, f Fetcher) ([]byte, error) {
	var data []byte
	var err error
	switch {
	case IsURL(src):
		data, err = f.Fetch(ctx, src)
	case src == "-":
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			err = fmt.Errorf("read stdin: %w", err)
		}
	default:
		data, err = os.ReadFile(src)
		if err != nil {
			err = fmt.Errorf("read patch file: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptyInput)
	}
	return data, nil
}
