// Package local provides a directory-backed snapshot store.
// It stands in for a cloud container in development and tests.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// Store keeps each blob as a file under a root directory.
// Blob names containing "/" map to subdirectories.
type Store struct {
	root   string
	closed bool
	mu     sync.RWMutex
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: local store directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// path resolves a blob name, rejecting names that escape the root.
func (s *Store) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: blob name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(s.root, clean), nil
}

// Upload copies the local file into the store under name.
// The copy is written to a temp file and renamed into place.
func (s *Store) Upload(_ context.Context, localPath, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(localPath)
	}

	dst, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename into %s: %w", name, err)
	}

	return nil
}

// List returns blob names (slash separated, relative to the root) that
// begin with prefix, in lexical order.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(filepath.Base(name), ".upload-") {
			return nil
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}

	sort.Strings(names)
	return names, nil
}

// LastModified returns the file's modification time.
func (s *Store) LastModified(_ context.Context, name string) (time.Time, error) {
	if err := s.checkOpen(); err != nil {
		return time.Time{}, err
	}

	p, err := s.path(name)
	if err != nil {
		return time.Time{}, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return time.Time{}, wrapError(name, err)
	}
	return info.ModTime().UTC(), nil
}

// Download reads the whole file.
func (s *Store) Download(_ context.Context, name string) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, wrapError(name, err)
	}
	return data, nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func wrapError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", name, domain.ErrNotFound)
	}
	return fmt.Errorf("blob %s: %w", name, err)
}

// Ensure Store implements driven.BlobStore.
var _ driven.BlobStore = (*Store)(nil)
