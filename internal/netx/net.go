// Package netx holds small HTTP helpers used by the updater.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Get performs a GET request and returns the body. Any status other than
// 200 OK is an error carrying the start of the response body.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	resp, err := do(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// DownloadToFile streams the body of url into path, replacing any existing
// file. A partially written file is removed on failure.
func DownloadToFile(ctx context.Context, client *http.Client, url, path string) error {
	resp, err := do(ctx, client, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func do(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}
	return resp, nil
}
