package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/erpsync/internal/netx"
)

// Release is the manifest published for the latest version.
type Release struct {
	Version   string `json:"version"`
	URL       string `json:"url"`
	Changelog string `json:"changelog"`
}

var ErrBadManifest = errors.New("bad update manifest")

// Source locates releases.
type Source interface {
	// Latest returns the manifest of the newest release.
	Latest(ctx context.Context) (Release, error)
	// ResolveURL turns a release URL into one that can be fetched over HTTP.
	ResolveURL(ctx context.Context, url string) (string, error)
}

func parseManifest(data []byte) (Release, error) {
	var r Release
	if err := json.Unmarshal(data, &r); err != nil {
		return Release{}, fmt.Errorf("%w: %w", ErrBadManifest, err)
	}
	if r.Version == "" || r.URL == "" {
		return Release{}, fmt.Errorf("%w: version and url are required", ErrBadManifest)
	}
	return r, nil
}

// HTTPSource reads the manifest from an http(s) URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Latest(ctx context.Context) (Release, error) {
	data, err := netx.Get(ctx, s.Client, s.URL)
	if err != nil {
		return Release{}, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *HTTPSource) ResolveURL(_ context.Context, url string) (string, error) {
	return url, nil
}
