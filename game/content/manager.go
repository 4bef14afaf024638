package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/darkwire-games/darkwire/game/engine"
)

var (
	// ErrCatalogNotFound means no catalog file exists under the given name.
	ErrCatalogNotFound = errors.New("catalog not found")
)

// Manager loads and caches catalogs from a content directory.
type Manager struct {
	dir string

	mu       sync.RWMutex
	catalogs map[string]*engine.Catalog
}

// NewManager creates a manager over a content directory. The directory must
// exist.
func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	return &Manager{
		dir:      dir,
		catalogs: make(map[string]*engine.Catalog),
	}, nil
}

// Load returns the catalog stored under name, parsing and validating it on
// first use.
func (m *Manager) Load(name string) (*engine.Catalog, error) {
	m.mu.RLock()
	if c, ok := m.catalogs[name]; ok {
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.catalogs[name]; ok {
		return c, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}
	data, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	m.catalogs[name] = c
	return c, nil
}

// List returns the names of every catalog file in the directory.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read content directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

// Resolve loads the named catalog from dir, or returns the built-in catalog
// when dir is empty.
func Resolve(dir, name string) (*engine.Catalog, error) {
	if dir == "" {
		return engine.DefaultCatalog(), nil
	}
	m, err := NewManager(dir)
	if err != nil {
		return nil, err
	}
	return m.Load(name)
}

// Parse decodes and validates one catalog document.
func Parse(data []byte) (*engine.Catalog, error) {
	var c engine.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := engine.ValidateCatalog(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
