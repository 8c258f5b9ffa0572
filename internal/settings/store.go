// SPDX-License-Identifier: MIT
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Write is one atomic store update. Settings fields and the preset keys are
// persisted together or not at all.
type Write struct {
	Settings      Patch
	CurrentPreset *string
	CustomPreset  *Preset
}

// Store is the durable key/value settings persistence.
type Store interface {
	// Get returns the requested fields; keys that were never written are
	// absent from the patch. No keys means every field.
	Get(ctx context.Context, keys ...string) (Patch, error)
	// Set applies a write atomically.
	Set(ctx context.Context, w Write) error
	// Presets returns the highlighted preset name and the saved custom preset.
	Presets(ctx context.Context) (current string, custom *Preset, err error)
}

// document is the on-disk layout of a FileStore.
type document struct {
	Settings      Patch   `yaml:"settings"`
	CurrentPreset string  `yaml:"currentPreset,omitempty"`
	CustomPreset  *Preset `yaml:"customPreset,omitempty"`
}

func (d *document) apply(w Write) {
	d.Settings = d.Settings.Combine(w.Settings)
	if w.CurrentPreset != nil {
		d.CurrentPreset = *w.CurrentPreset
	}
	if w.CustomPreset != nil {
		custom := *w.CustomPreset
		d.CustomPreset = &custom
	}
}

func (d *document) get(keys []string) Patch {
	if len(keys) == 0 {
		return d.Settings
	}
	return d.Settings.Only(keys...)
}

// FileStore persists settings in a YAML file. A missing file reads as an
// empty record. Writes go to a temporary file that is renamed into place.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read settings store: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse settings store: %w", err)
	}
	return doc, nil
}

func (s *FileStore) save(doc document) error {
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode settings store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings store: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, keys ...string) (Patch, error) {
	if err := ctx.Err(); err != nil {
		return Patch{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Patch{}, err
	}
	return doc.get(keys), nil
}

// Set implements Store.
func (s *FileStore) Set(ctx context.Context, w Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.apply(w)
	return s.save(doc)
}

// Presets implements Store.
func (s *FileStore) Presets(ctx context.Context) (string, *Preset, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return "", nil, err
	}
	return doc.CurrentPreset, doc.CustomPreset, nil
}

// MemoryStore is an in-process Store, used by tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	doc    document
	writes int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, keys ...string) (Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.get(keys), nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, w Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.apply(w)
	s.writes++
	return nil
}

// Presets implements Store.
func (s *MemoryStore) Presets(context.Context) (string, *Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.CurrentPreset, s.doc.CustomPreset, nil
}

// Writes counts Set calls, letting tests observe write coalescing.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
