// Package store persists the best score. The backing store is a small
// key/value map; the game only ever uses the "best" key.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// BestKey is the key the best score is stored under.
const BestKey = "best"

// KV is a string key/value store.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// MemoryKV keeps values in memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileKV stores values as a flat YAML map in a single file. Every Set
// rewrites the file through a temp file and rename.
type FileKV struct {
	mu   sync.Mutex
	path string
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// corrupt files are overwritten
		values = map[string]string{}
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kv-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Best tracks the best score across runs. Sessions on different connections
// record concurrently, so access is serialized.
type Best struct {
	mu    sync.Mutex
	kv    KV
	value int
}

// NewBest loads the stored best score. Missing or malformed values count as 0.
func NewBest(kv KV) *Best {
	b := &Best{kv: kv}
	b.value = Load(kv)
	return b
}

// Load reads the best score from kv, treating anything unreadable as 0.
func Load(kv KV) int {
	raw, ok, err := kv.Get(BestKey)
	if err != nil || !ok {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Value returns the current best score.
func (b *Best) Value() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Record folds score into the best and writes the result back. It returns
// the best score after the update; the in-memory value is kept even if the
// write fails.
func (b *Best) Record(score int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score > b.value {
		b.value = score
	}
	if err := b.kv.Set(BestKey, strconv.Itoa(b.value)); err != nil {
		return b.value, fmt.Errorf("persist best score: %w", err)
	}
	return b.value, nil
}
