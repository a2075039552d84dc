package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"PackCurator/internal/ports"
)

// Store downloads preview images into a local directory so queued posts
// survive restarts with their image intact. Any fetch problem yields "no
// image" rather than an error: posts degrade to text-only.
type Store struct {
	dir    string
	client *http.Client
	logger *slog.Logger
}

var _ ports.ImageStore = (*Store)(nil)

// NewStore makes sure the images directory exists.
func NewStore(dir string, client *http.Client, logger *slog.Logger) (*Store, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Store{dir: dir, client: client, logger: logger}, nil
}

// Fetch downloads the image and returns its local path, or "" when the
// URL is empty or the download fails for any reason.
func (s *Store) Fetch(ctx context.Context, url, packID string) string {
	if url == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.warn("build image request", "url", url, "error", err)
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.warn("fetch image", "url", url, "pack", packID, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.warn("fetch image", "url", url, "pack", packID, "status", resp.Status)
		return ""
	}

	name := uuid.NewString() + extensionFor(url)
	dest := filepath.Join(s.dir, name)

	f, err := os.Create(dest)
	if err != nil {
		s.warn("create image file", "path", dest, "error", err)
		return ""
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		s.warn("write image file", "path", dest, "error", err)
		return ""
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		s.warn("close image file", "path", dest, "error", err)
		return ""
	}

	return dest
}

// Release deletes a previously fetched image file.
func (s *Store) Release(imagePath string) {
	if imagePath == "" {
		return
	}
	if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
		s.warn("remove image file", "path", imagePath, "error", err)
	}
}

// extensionFor guesses the file extension from the URL path, defaulting
// to .png for query-string-mangled or extension-less URLs.
func extensionFor(rawURL string) string {
	clean := rawURL
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := path.Ext(clean)
	if ext == "" || len(ext) > 5 {
		return ".png"
	}
	return ext
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
