package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore persists blobs to a directory on local disk. The directory is
// an append-only namespace: names are unique by construction, so nothing is
// ever overwritten.
type LocalStore struct {
	dir        string
	publicBase string
}

// NewLocalStore creates the upload directory if it does not exist and
// returns a ready-to-use LocalStore. publicBase is the URL prefix the
// directory is served under, e.g. "/images".
func NewLocalStore(dir, publicBase string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalStore{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload writes the content to a uniquely named file and returns its
// locator. The write is synchronous relative to the request.
func (s *LocalStore) Upload(ctx context.Context, r io.Reader, size int64, originalName, contentType string) (Locator, error) {
	if size == 0 {
		return Locator{}, ErrEmptyPayload
	}

	name := uniqueName(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Locator{}, fmt.Errorf("create %q: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Locator{}, fmt.Errorf("write %q: %w", path, err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return Locator{}, ErrEmptyPayload
	}

	return Locator{Key: name, URL: s.URL(name)}, nil
}

// Delete removes the file for key from the upload directory.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(key))); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// URL returns the static-serving path for key, e.g. "/images/xyz.jpg".
func (s *LocalStore) URL(key string) string {
	return s.publicBase + "/" + key
}
