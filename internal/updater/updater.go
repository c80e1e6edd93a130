package updater

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/dmitrijs2005/erpsync/internal/filex"
	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/netx"
)

// StagingDir is where Stage puts downloaded archives, relative to the
// working directory.
const StagingDir = "updates"

type Updater struct {
	current *semver.Version
	source  Source
	client  *http.Client
	log     logging.Logger
}

type Option func(*Updater)

func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) { u.client = c }
}

func WithLogger(l logging.Logger) Option {
	return func(u *Updater) { u.log = l }
}

// New returns an Updater for the running version.
func New(currentVersion string, source Source, opts ...Option) (*Updater, error) {
	v, err := semver.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", currentVersion, err)
	}
	u := &Updater{current: v, source: source, client: http.DefaultClient, log: logging.Nop()}
	for _, o := range opts {
		o(u)
	}
	return u, nil
}

// CheckForUpdate reports whether the source offers a version newer than the
// running one.
func (u *Updater) CheckForUpdate(ctx context.Context) (bool, Release, error) {
	rel, err := u.source.Latest(ctx)
	if err != nil {
		return false, Release{}, err
	}
	latest, err := semver.NewVersion(rel.Version)
	if err != nil {
		return false, rel, fmt.Errorf("%w: version %q: %w", ErrBadManifest, rel.Version, err)
	}
	return latest.GreaterThan(u.current), rel, nil
}

// Download fetches url into destPath.
func (u *Updater) Download(ctx context.Context, url, destPath string) error {
	resolved, err := u.source.ResolveURL(ctx, url)
	if err != nil {
		return err
	}
	if err := netx.DownloadToFile(ctx, u.client, resolved, destPath); err != nil {
		return err
	}
	u.log.Info(ctx, "update downloaded", "path", destPath)
	return nil
}

// Stage downloads the archive of rel into StagingDir and returns its path.
func (u *Updater) Stage(ctx context.Context, rel Release) (string, error) {
	dir, err := filex.EnsureSubdDir(StagingDir)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, "erp-"+rel.Version+".zip")
	if err := u.Download(ctx, rel.URL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Apply extracts archivePath into targetDir and removes the archive. Only a
// missing or unreadable archive is an error. It needs no Updater, since it
// runs in a separate process once the client has exited. A nil log discards
// output.
func Apply(ctx context.Context, log logging.Logger, archivePath, targetDir string) error {
	if log == nil {
		log = logging.Nop()
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open update archive: %w", err)
	}

	total := len(r.File)
	extracted := 0
	log.Info(ctx, "applying update", "archive", archivePath, "target", targetDir, "files", total)

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			_ = r.Close()
			return err
		}
		if err := extractFile(f, targetDir); err != nil {
			log.Warn(ctx, "failed to extract file", "name", f.Name, "error", err)
			continue
		}
		extracted++
	}
	_ = r.Close()

	if err := os.Remove(archivePath); err != nil {
		log.Warn(ctx, "failed to remove update archive", "path", archivePath, "error", err)
	}

	log.Info(ctx, "update applied", "extracted", extracted, "skipped", total-extracted)
	return nil
}

func extractFile(f *zip.File, targetDir string) error {
	dest, err := filex.SafeJoin(targetDir, path.Clean(f.Name))
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
