// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/apex/log"
)

// ErrNotExist is returned by a Store when nothing is cached at a path.
var ErrNotExist = errors.New("cache entry does not exist")

// Store reads and writes cache files addressed by their slash-separated path
// relative to the data root.
type Store interface {
	Read(ctx context.Context, rel string) ([]byte, error)
	Write(ctx context.Context, rel string, data []byte) error
	// List returns the relative paths of every cache file, sorted.
	List(ctx context.Context) ([]string, error)
	// Root is the data root, for display.
	Root() string
}

// OpenStore picks the store for root: S3 for s3:// URLs, the local
// filesystem otherwise.
func OpenStore(ctx context.Context, root string) (Store, error) {
	if IsRemote(root) {
		return NewS3Store(ctx, root)
	}
	return NewFileStore(root), nil
}

// FileStore keeps cache files under a local directory.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Root() string { return s.root }

func (s *FileStore) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *FileStore) Read(_ context.Context, rel string) ([]byte, error) {
	p := s.path(rel)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return bytes.TrimSpace(b), nil
}

// Write stores data at rel, creating directories as needed.
func (s *FileStore) Write(_ context.Context, rel string, data []byte) error {
	p := s.path(rel)
	if err := EnsureParent(p); err != nil {
		return err
	}
	if err := os.WriteFile(p, data, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Debugf("wrote cache file %s", p)
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	var result []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if _, ok := KeyFromRelPath(rel); ok {
			result = append(result, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	sort.Strings(result)
	return result, nil
}
