package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileStore keeps allocation records in memory and mirrors them to one JSON
// document file after every write. With an empty path it is memory-only,
// which is what simulations and tests use. Safe for concurrent use.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records []Record
	index   map[string]int // id -> position in records
}

// NewFileStore opens (or creates) the store backed by path. Existing
// contents are loaded so records survive restarts. An empty path yields a
// memory-only store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, index: make(map[string]int)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parsing store file %s: %w", path, err)
	}
	for i, r := range s.records {
		s.index[r.ID] = i
	}
	return s, nil
}

// NewMemoryStore returns a store that never touches the filesystem.
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore("")
	return s
}

// Create implements Store.
func (s *FileStore) Create(r Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.NewString()
	s.records = append(s.records, r)
	s.index[r.ID] = len(s.records) - 1
	if err := s.save(); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Get implements Store.
func (s *FileStore) Get(id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Record{}, false, nil
	}
	return s.records[i], true, nil
}

// Update implements Store.
func (s *FileStore) Update(id string, mutate func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Record{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	updated := s.records[i]
	mutate(&updated)
	updated.ID = id // the id is not updatable
	s.records[i] = updated
	if err := s.save(); err != nil {
		return Record{}, err
	}
	return updated, nil
}

// List implements Store.
func (s *FileStore) List(f Filter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.index = make(map[string]int)
	return s.save()
}

// save writes the full record list to a temp file and renames it over the
// store path, so a crash mid-write cannot truncate the store.
func (s *FileStore) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing store file: %w", err)
	}
	return nil
}
