// ============================================================================
// backend/internal/filestore/filestore.go
// JSON file snapshot store for offline exports and local development
// ============================================================================

// Package filestore persists named collections as pretty-printed JSON files
// under a data directory. It backs the export surface and lets the seeder run
// against a snapshot when no database is reachable. It is a snapshot store,
// not a database: whole-collection reads and writes only.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store manages one data directory of collection files.
type Store struct {
	dir string

	mu sync.Mutex // serializes writers per store
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pathFor(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Read loads a collection into v. A missing file leaves v untouched and
// returns false.
func (s *Store) Read(collection string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.pathFor(collection))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", collection, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("corrupt snapshot %s: %w", collection, err)
	}
	return true, nil
}

// Write replaces a collection with v. The write goes through a temp file and
// rename, so readers never observe a half-written snapshot.
func (s *Store) Write(collection string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}

	target := s.pathFor(collection)
	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", collection, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", collection, err)
	}
	return nil
}

// Exists reports whether a collection snapshot is present.
func (s *Store) Exists(collection string) bool {
	_, err := os.Stat(s.pathFor(collection))
	return err == nil
}

// Delete removes a collection snapshot. Deleting a missing snapshot is a
// no-op.
func (s *Store) Delete(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(collection))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", collection, err)
	}
	return nil
}

// Collections lists the snapshot names present in the store.
func (s *Store) Collections() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		names = append(names, name[:len(name)-len(".json")])
	}
	return names, nil
}
