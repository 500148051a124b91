package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"

	"linkarr/internal/logging"
)

// Store serves the settings document to the rest of the process and persists
// updates atomically.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
}

// NewStore reads the document at path, falling back to defaults when the file
// is absent or unparseable. A broken document is replaced rather than fatal.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	store := &Store{path: path, logger: logger, current: Default()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := store.save(store.current); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		loaded := Default()
		if err := toml.Unmarshal(data, &loaded); err != nil {
			logger.Warn("settings document is malformed, resetting to defaults",
				logging.String("path", path),
				logging.Error(err))
			if err := store.save(store.current); err != nil {
				return nil, err
			}
		} else {
			store.current = loaded
		}
	}
	return store, nil
}

// Current returns a copy of the in-memory document.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges the patch into the cached document, persists the result
// atomically, and returns the new document.
func (s *Store) Update(patch Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.apply(s.current)
	if err := s.save(next); err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

func (s *Store) save(doc Settings) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
