package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"linkarr/internal/logging"
	"linkarr/internal/parse"
	"linkarr/internal/records"
	"linkarr/internal/settings"
)

// candidate is one discovered video file awaiting processing.
type candidate struct {
	path string
	kind records.MediaKind
	size int64
}

type sourceRoot struct {
	path string
	kind records.MediaKind
}

// discover walks the configured sources and returns every qualifying video
// file. When dir is non-empty only that subtree is walked; the forced kind
// still follows the root that contains it.
func (s *Scanner) discover(doc settings.Settings, dir string) ([]candidate, error) {
	roots := sourceRoots(doc)
	if len(roots) == 0 {
		return nil, errors.New("no source path configured")
	}

	if dir != "" {
		cleanDir := filepath.Clean(dir)
		kind := records.KindUnknown
		for _, root := range roots {
			if root.path == "" {
				continue
			}
			cleanRoot := filepath.Clean(root.path)
			// Component boundary, so /src/tv2 does not inherit /src/tv's kind.
			if cleanDir == cleanRoot || strings.HasPrefix(cleanDir, cleanRoot+string(filepath.Separator)) {
				kind = root.kind
				break
			}
		}
		roots = []sourceRoot{{path: dir, kind: kind}}
	}

	extensions := doc.ExtensionSet()
	minSize := doc.MinVideoSize()

	var found []candidate
	for _, root := range roots {
		if strings.TrimSpace(root.path) == "" {
			continue
		}
		if _, err := os.Stat(root.path); err != nil {
			s.logger.Warn("source root not accessible, skipping",
				logging.String("path", root.path),
				logging.Error(err))
			continue
		}
		err := filepath.WalkDir(root.path, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn("walk error", logging.String("path", path), logging.Error(err))
				if entry != nil && entry.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			hidden := strings.HasPrefix(entry.Name(), ".")
			if entry.IsDir() {
				if hidden && path != root.path {
					return fs.SkipDir
				}
				return nil
			}
			if hidden {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if _, ok := extensions[ext]; !ok {
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				return nil
			}
			if info.Size() < minSize {
				return nil
			}
			if parse.ShouldIgnore(path) {
				return nil
			}
			found = append(found, candidate{path: path, kind: root.kind, size: info.Size()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

func sourceRoots(doc settings.Settings) []sourceRoot {
	if doc.SourceMode == settings.SourceModeSeparate {
		var roots []sourceRoot
		if doc.SourceMoviesPath != "" {
			roots = append(roots, sourceRoot{path: doc.SourceMoviesPath, kind: records.KindMovie})
		}
		if doc.SourceTVPath != "" {
			roots = append(roots, sourceRoot{path: doc.SourceTVPath, kind: records.KindTV})
		}
		return roots
	}
	if doc.SourcePath == "" {
		return nil
	}
	return []sourceRoot{{path: doc.SourcePath, kind: records.KindUnknown}}
}
