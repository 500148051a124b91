package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"linkarr/internal/logging"
)

// Linker materializes and removes destination links.
type Linker struct {
	logger *slog.Logger
}

// New builds a Linker.
func New(logger *slog.Logger) *Linker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Linker{logger: logger}
}

// Link creates destination as a hardlink to source, replacing any existing
// entry. A cross-device link error falls back to a symlink transparently.
// Re-linking the same pair is a no-op.
func (l *Linker) Link(source, destination string) error {
	sourceInfo, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if destInfo, err := os.Stat(destination); err == nil {
		if os.SameFile(sourceInfo, destInfo) {
			return nil
		}
	}
	if _, err := os.Lstat(destination); err == nil {
		if err := os.Remove(destination); err != nil {
			return fmt.Errorf("replace destination: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("ensure destination directory: %w", err)
	}

	if err := os.Link(source, destination); err != nil {
		if errors.Is(err, syscall.EXDEV) {
			l.logger.Debug("hardlink crossed filesystems, using symlink",
				logging.String("source", source),
				logging.String("destination", destination))
			if symErr := os.Symlink(source, destination); symErr != nil {
				return fmt.Errorf("symlink fallback: %w", symErr)
			}
			return nil
		}
		return fmt.Errorf("hardlink: %w", err)
	}
	return nil
}

// Remove deletes the destination entry if present, then prunes now-empty
// ancestor directories, stopping at (and never removing) any of the roots.
func (l *Linker) Remove(destination string, roots []string) error {
	if destination == "" {
		return nil
	}
	if _, err := os.Lstat(destination); err == nil {
		if err := os.Remove(destination); err != nil {
			return fmt.Errorf("remove destination: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	l.pruneEmptyAncestors(filepath.Dir(destination), roots)
	return nil
}

func (l *Linker) pruneEmptyAncestors(dir string, roots []string) {
	stops := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		if root != "" {
			stops[filepath.Clean(root)] = struct{}{}
		}
	}

	for {
		cleaned := filepath.Clean(dir)
		if _, stop := stops[cleaned]; stop {
			return
		}
		if cleaned == "/" || cleaned == "." || filepath.Dir(cleaned) == cleaned {
			return
		}
		entries, err := os.ReadDir(cleaned)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(cleaned); err != nil {
			return
		}
		dir = filepath.Dir(cleaned)
	}
}
