// Package localblob stores uploaded files in a local directory.
package localblob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Ensure Store implements domain.BlobStore.
var _ domain.BlobStore = (*Store)(nil)

// Store writes objects to <dir>/<bucket>/<path>.
// PublicURL is <baseURL>/<bucket>/<path> when baseURL is set, otherwise a file:// URL.
type Store struct {
	dir     string
	baseURL string
}

// New creates a Store rooted at dir.
func New(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) objectPath(bucket, path string) (string, error) {
	root := filepath.Join(s.dir, bucket)
	full := filepath.Join(root, filepath.FromSlash(path))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return full, nil
}

// Upload writes the content atomically, replacing any existing object.
func (s *Store) Upload(ctx context.Context, bucket, path, _ string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod object: %w", err)
	}
	if err := os.Rename(tmpPath, full); err != nil {
		return fmt.Errorf("rename object: %w", err)
	}
	return nil
}

// PublicURL returns the URL serving the object.
func (s *Store) PublicURL(bucket, path string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + url.PathEscape(bucket) + "/" + escapePath(path)
	}
	abs, err := filepath.Abs(filepath.Join(s.dir, bucket, filepath.FromSlash(path)))
	if err != nil {
		abs = filepath.Join(s.dir, bucket, path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
