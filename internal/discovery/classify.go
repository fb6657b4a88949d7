// pattern: Imperative Shell

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
)

// Classify turns a marker hit into a ProjectRoot named after the directory
// that contains the marker.
func Classify(m Marker) (ProjectRoot, error) {
	parent := filepath.Dir(m.Path)
	if m.Path == "" || parent == m.Path {
		return ProjectRoot{}, fmt.Errorf("marker %q has no parent: %w", m.Path, ErrOrphanMarkerPath)
	}

	canonical, err := canonicalize(parent)
	if err != nil {
		return ProjectRoot{}, fmt.Errorf("canonicalizing parent of %s: %v: %w", m.Path, err, ErrOrphanMarkerPath)
	}

	name := filepath.Base(canonical)
	if name == string(filepath.Separator) || name == "." {
		return ProjectRoot{}, fmt.Errorf("marker %s sits at the filesystem root: %w", m.Path, ErrOrphanMarkerPath)
	}

	return ProjectRoot{
		Name:          name,
		CanonicalPath: canonical,
		Marker:        m.Kind,
		MarkerPath:    m.Path,
	}, nil
}

// HomeRoot validates the notes home root and returns it as a HomeFallback root.
func HomeRoot(home string) (ProjectRoot, error) {
	if home == "" {
		return ProjectRoot{}, fmt.Errorf("home directory not set: %w", ErrHomeDirectoryMissing)
	}

	info, err := os.Stat(home)
	if err != nil {
		return ProjectRoot{}, fmt.Errorf("%s: %v: %w", home, err, ErrHomeDirectoryMissing)
	}
	if !info.IsDir() {
		return ProjectRoot{}, fmt.Errorf("%s is not a directory: %w", home, ErrHomeDirectoryMissing)
	}

	canonical, err := canonicalize(home)
	if err != nil {
		return ProjectRoot{}, fmt.Errorf("%s: %v: %w", home, err, ErrHomeDirectoryMissing)
	}

	return ProjectRoot{
		Name:          HomeProjectName,
		CanonicalPath: canonical,
		Marker:        HomeFallback,
	}, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
