package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"
)

// FileStore keeps the snapshot in one JSON document. Writes go to a
// temporary file first and replace the real one with os.Rename, so an
// interrupted write never corrupts the previous snapshot.
type FileStore struct {
	path string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dataDir, SnapshotKey+".json")}, nil
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context) (core.AppState, bool, error) {
	var state core.AppState
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&state); err != nil {
		return core.AppState{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, true, nil
}

func (f *FileStore) Save(_ context.Context, state core.AppState) error {
	tmp := f.path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	// Indented output: the snapshot doubles as a human-readable backup.
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}
