// Package download retrieves the bulk PRG archive and unpacks its feature
// documents into a flat XML directory. The core pipeline treats both as
// external collaborators: it only ever sees the resulting directory.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/logger"
)

// Fetcher downloads the bulk address archive over HTTP
type Fetcher struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewFetcher creates a fetcher. The bulk archive is tens of gigabytes, so
// the client has no overall timeout; cancellation goes through the context.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:     &http.Client{},
		maxRetries: 3,
		retryDelay: 5 * time.Second,
	}
}

// Fetch downloads url to the given path, streaming to a temp file and
// renaming on success so a partial download is never mistaken for a
// complete archive.
func (f *Fetcher) Fetch(ctx context.Context, url, path string) error {
	log := logger.Get()
	log.Info("Downloading archive", zap.String("url", url), zap.String("path", path))
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	resp, err := f.fetchWithRetry(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write archive file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename archive file: %w", err)
	}

	log.Info("Finished downloading archive",
		zap.Int64("bytes", written),
		zap.Duration("duration", time.Since(start).Round(time.Second)),
	)
	return nil
}

// fetchWithRetry performs an HTTP GET with retries on transport and server
// errors.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "prg2geoparquet/1.0")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
