package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// storeFile is the on-disk layout.
type storeFile struct {
	Launches     []Descriptor  `yaml:"launches"`
	Associations []Association `yaml:"associations"`
}

// Store persists descriptors and associations in a YAML file. A missing file
// reads as empty.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// List returns every descriptor sorted by name.
func (s *Store) List() ([]Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	sort.Slice(f.Launches, func(i, j int) bool { return f.Launches[i].Name < f.Launches[j].Name })
	return f.Launches, nil
}

// FindByName returns the descriptor called name.
func (s *Store) FindByName(name string) (Descriptor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return Descriptor{}, false, err
	}
	for _, d := range f.Launches {
		if d.Name == name {
			return d, true, nil
		}
	}
	return Descriptor{}, false, nil
}

// Save inserts d, or replaces the descriptor with the same ID. A descriptor
// without an ID gets a fresh one. The saved descriptor is returned.
func (s *Store) Save(d Descriptor) (Descriptor, error) {
	if d.Name == "" {
		return Descriptor{}, errors.New("descriptor name is required")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return Descriptor{}, err
	}

	replaced := false
	for i := range f.Launches {
		if f.Launches[i].ID == d.ID {
			f.Launches[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		f.Launches = append(f.Launches, d)
	}

	if err := s.write(f); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Associations returns the persisted associations.
func (s *Store) Associations() ([]Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	return f.Associations, nil
}

// SaveAssociations replaces the persisted associations.
func (s *Store) SaveAssociations(associations []Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	f.Associations = associations
	return s.write(f)
}

func (s *Store) read() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &storeFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read launch store: %w", err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse launch store %s: %w", s.path, err)
	}
	return &f, nil
}

func (s *Store) write(f *storeFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal launch store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write launch store: %w", err)
	}
	return nil
}
