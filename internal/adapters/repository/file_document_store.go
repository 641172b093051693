package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*FileDocumentStore)(nil)

var ErrInvalidKey = errors.New("document key escapes the data directory")

// FileDocumentStore keeps each document as a JSON file under a base directory.
type FileDocumentStore struct {
	dir string
}

func NewFileDocumentStore(dir string) *FileDocumentStore {
	return &FileDocumentStore{dir: dir}
}

func (s *FileDocumentStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *FileDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Set replaces the document atomically: readers see either the old or the
// new file, never a partial write.
func (s *FileDocumentStore) Set(ctx context.Context, key string, doc []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return os.Rename(tmpName, p)
}

// Ping checks that the base directory is usable.
func (s *FileDocumentStore) Ping(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
