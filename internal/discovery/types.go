// pattern: Functional Core

package discovery

import "errors"

// MarkerKind selects which naming rule applies to a project.
type MarkerKind int

const (
	Git          MarkerKind = iota // version-controlled repository
	BuildSystem                    // build or package manifest, no version control
	HomeFallback                   // nothing found; notes go straight under the home root
)

func (k MarkerKind) String() string {
	switch k {
	case Git:
		return "git"
	case BuildSystem:
		return "build-system"
	case HomeFallback:
		return "home"
	default:
		return "unknown"
	}
}

// GitMarker is the version-control metadata entry. Every other marker is a build-system marker.
const GitMarker = ".git"

// HomeProjectName is the project name used for HomeFallback roots.
const HomeProjectName = "home"

// Marker is a marker hit produced by the Scanner.
type Marker struct {
	Path string     // Absolute path of the marker entry (e.g. /src/app/.git)
	Kind MarkerKind // Git or BuildSystem
}

// ProjectRoot is the classified anchor for a project's notes.
type ProjectRoot struct {
	Name          string     // Basename of the project directory, or "home"
	CanonicalPath string     // Symlink-free absolute path of the project directory
	Marker        MarkerKind // Naming rule to apply
	MarkerPath    string     // Marker entry that produced this root; empty for HomeFallback
}

var (
	// ErrHomeDirectoryMissing means the notes home root is undiscoverable or absent.
	ErrHomeDirectoryMissing = errors.New("notes home directory does not exist or is improperly configured")
	// ErrScanDepthExceeded means no marker was found within the ascent bound.
	ErrScanDepthExceeded = errors.New("marker scan depth exceeded")
	// ErrMarkerNotFound means the filesystem root was reached without a marker.
	ErrMarkerNotFound = errors.New("no project marker found")
	// ErrOrphanMarkerPath means a marker was found but no project name could be derived from it.
	ErrOrphanMarkerPath = errors.New("orphan marker path")
)

// IsExhausted reports whether err means the scan ran out of directories,
// which callers treat as a fallback to the home root rather than a failure.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrScanDepthExceeded) || errors.Is(err, ErrMarkerNotFound)
}
