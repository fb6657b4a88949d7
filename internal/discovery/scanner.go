// pattern: Imperative Shell

package discovery

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"baan/internal/logging"
)

// Scanner ascends from a start directory looking for project markers.
type Scanner struct {
	markers  []string
	maxDepth int
	logger   *logging.ScopedLogger
}

// NewScanner creates a scanner that checks markers in the given priority
// order and ascends at most maxDepth levels above the start directory.
func NewScanner(markers []string, maxDepth int, logger *logging.ScopedLogger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{
		markers:  append([]string(nil), markers...),
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Ancestors yields start followed by its parents, at most limit levels up.
// The level of start is 0. Iteration stops at the filesystem root.
func Ancestors(start string, limit int) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		dir := filepath.Clean(start)
		for level := 0; level <= limit; level++ {
			if !yield(level, dir) {
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	}
}

// KindOf classifies a marker filename.
func KindOf(name string) MarkerKind {
	if name == GitMarker {
		return Git
	}
	return BuildSystem
}

// Scan returns the first marker found walking up from start. Within one
// directory the marker list order decides. When nothing is found the error
// wraps ErrScanDepthExceeded or ErrMarkerNotFound (see IsExhausted).
func (s *Scanner) Scan(start string) (Marker, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return Marker{}, fmt.Errorf("resolving start path %s: %w", start, err)
	}

	last := abs
	for level, dir := range Ancestors(abs, s.maxDepth) {
		last = dir
		for _, name := range s.markers {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				if !os.IsNotExist(err) {
					s.logger.Debug("marker check failed", "path", candidate, "error", err)
				}
				continue
			}
			m := Marker{Path: candidate, Kind: KindOf(name)}
			s.logger.Debug("marker found", "path", candidate, "kind", m.Kind.String(), "level", level)
			return m, nil
		}
	}

	if filepath.Dir(last) == last {
		return Marker{}, fmt.Errorf("scanning from %s: %w", abs, ErrMarkerNotFound)
	}
	return Marker{}, fmt.Errorf("scanning from %s (max depth %d): %w", abs, s.maxDepth, ErrScanDepthExceeded)
}

// Resolve classifies the project containing start. The home root is
// validated first; if no marker is found the home root is returned.
func (s *Scanner) Resolve(start, home string) (ProjectRoot, error) {
	homeRoot, err := HomeRoot(home)
	if err != nil {
		return ProjectRoot{}, err
	}

	marker, err := s.Scan(start)
	if err != nil {
		if IsExhausted(err) {
			s.logger.Info("no project marker, using home root", "start", start, "reason", err.Error())
			return homeRoot, nil
		}
		return ProjectRoot{}, err
	}

	root, err := Classify(marker)
	if err != nil {
		return ProjectRoot{}, err
	}
	s.logger.Debug("project classified", "name", root.Name, "root", root.CanonicalPath, "kind", root.Marker.String())
	return root, nil
}
