package chartdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Download describes a fetched or cached chart database file.
type Download struct {
	Path   string
	Bytes  int64
	Cached bool
}

// Fetch downloads the chart database from url into dest. An existing file is
// reused unless force is set. The file is validated before it replaces dest.
func Fetch(ctx context.Context, url, dest string, force bool) (Download, error) {
	if url == "" {
		return Download{}, fmt.Errorf("chart database url is required")
	}
	if dest == "" {
		return Download{}, fmt.Errorf("destination path is required")
	}
	if !force {
		if info, err := os.Stat(dest); err == nil {
			return Download{Path: dest, Bytes: info.Size(), Cached: true}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Download{}, fmt.Errorf("failed to stat cached chart database: %w", err)
		}
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Download{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	resp, err := httpRequest(ctx, url)
	if err != nil {
		return Download{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Download{}, fmt.Errorf("unexpected chart database status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(dir, "charts-*.json")
	if err != nil {
		return Download{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return Download{}, fmt.Errorf("failed to download chart database: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Download{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	db, err := Load(tmpPath)
	if err != nil {
		return Download{}, err
	}
	if db.Len() == 0 {
		return Download{}, fmt.Errorf("downloaded chart database is empty")
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Download{}, fmt.Errorf("failed to move chart database into cache: %w", err)
	}
	return Download{Path: dest, Bytes: n}, nil
}

func httpRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
