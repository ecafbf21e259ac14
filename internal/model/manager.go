package model

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ekisa-team/llamaterm/internal/config"
	"github.com/ekisa-team/llamaterm/internal/envvar"
	"github.com/ekisa-team/llamaterm/internal/xfs"
)

// Manager owns the model catalog and rebuilds it on config changes.
type Manager struct {
	registry *Registry
	dir      string
	mu       sync.RWMutex
}

// NewManager creates a Manager with an empty catalog.
func NewManager() *Manager {
	return &Manager{registry: NewRegistry()}
}

// Registry returns the current catalog.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// Dir returns the models directory scanned by the last load.
func (m *Manager) Dir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.dir
}

// LoadFromConfig rebuilds the catalog from configured entries and a scan of
// the models directory. Configured entries win over scanned files with the
// same ID. A missing models directory is not an error.
func (m *Manager) LoadFromConfig(cfg *config.Config) error {
	registry := NewRegistry()

	for id, mc := range cfg.Models.Entries {
		path := xfs.ExpandTilde(mc.Path)

		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("Configured model file not found", "model_id", id, "path", path)
			continue
		}

		registry.Set(Entry{
			ID:          id,
			Path:        path,
			Description: mc.Description,
			Origin:      OriginConfig,
			Size:        info.Size(),
		})
	}

	dir := resolveModelsPath(cfg)
	scanned, err := scanDir(dir, cfg.Models.Extensions)
	if err != nil {
		return fmt.Errorf("failed to scan models directory %s: %w", dir, err)
	}

	for _, entry := range scanned {
		if _, ok := registry.Get(entry.ID); ok {
			continue
		}
		registry.Set(entry)
	}

	m.mu.Lock()
	m.registry = registry
	m.dir = dir
	m.mu.Unlock()

	slog.Info("Model catalog loaded", "models_dir", dir, "count", registry.Len())
	return nil
}

// Resolve returns the file path for a catalog ID, or ref itself when it is
// not a known ID.
func (m *Manager) Resolve(ref string) string {
	if entry, ok := m.Registry().Get(ref); ok {
		return entry.Path
	}
	return xfs.ExpandTilde(ref)
}

// Lookup returns the entry with the given ID.
func (m *Manager) Lookup(id string) (Entry, error) {
	entry, ok := m.Registry().Get(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, nil
}

// scanDir lists the model files directly inside dir.
func scanDir(dir string, exts []string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Models directory does not exist", "path", dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range items {
		if item.IsDir() || !xfs.HasExtension(item.Name(), exts) {
			continue
		}

		info, err := item.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		entries = append(entries, Entry{
			ID:     item.Name(),
			Path:   filepath.Join(dir, item.Name()),
			Origin: OriginScan,
			Size:   info.Size(),
		})
	}

	return entries, nil
}

// resolveModelsPath returns the path to the models directory.
// Precedence:
// 1. LLAMATERM_MODELS_PATH environment variable.
// 2. models.dir in the config.
// 3. Default models path.
func resolveModelsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.LlamatermModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Models.Dir != "" {
		return xfs.ExpandTilde(cfg.Models.Dir)
	}
	return xfs.ExpandTilde(config.DefaultModelsPath())
}
