package slot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot is a DurableSlot backed by a single file inside a state directory.
// Writes go through a temp file and rename so concurrent readers never observe
// a partial payload.
type FileSlot struct {
	path string
}

// NewFileSlot creates the state directory if needed and returns a slot bound
// to <dir>/<name>.json.
func NewFileSlot(dir, name string) (*FileSlot, error) {
	if dir == "" {
		return nil, fmt.Errorf("slot: state directory is required")
	}
	if name == "" {
		return nil, fmt.Errorf("slot: slot name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("slot: creating state directory: %w", err)
	}
	return &FileSlot{path: filepath.Join(dir, name+".json")}, nil
}

// Path returns the absolute location of the slot file, for watchers.
func (s *FileSlot) Path() string {
	return s.path
}

// Read implements DurableSlot. A missing file reads as an empty slot.
func (s *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("slot: reading %s: %w", s.path, err)
	}
	return data, nil
}

// Write implements DurableSlot.
func (s *FileSlot) Write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("slot: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("slot: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("slot: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("slot: replacing %s: %w", s.path, err)
	}
	return nil
}

// Clear implements DurableSlot.
func (s *FileSlot) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("slot: clearing %s: %w", s.path, err)
	}
	return nil
}
