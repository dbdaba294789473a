package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps blobs as files under a single directory.
type LocalStore struct {
	dir           string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, publicBaseURL string, logger *zap.Logger) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"), logger: logger}, nil
}

func (s *LocalStore) path(name string) string {
	// names are generated server-side, but never trust them as paths
	return filepath.Join(s.dir, filepath.Base(name))
}

// Exists reports whether the blob file is present.
func (s *LocalStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Put writes the blob atomically via a temp file rename.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path(name))
}

// Get reads the blob bytes.
func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete removes the blob file.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// PublicURL is only available when a base URL is configured.
func (s *LocalStore) PublicURL(name string) (string, bool) {
	if s.publicBaseURL == "" {
		return "", false
	}
	return s.publicBaseURL + "/" + filepath.Base(name), true
}
