// pattern: Imperative Shell

package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"baan/internal/atomicfile"
	"baan/internal/discovery"
	"baan/internal/logging"
)

const (
	NoteExt       = ".md"
	BraindumpFile = "braindump" + NoteExt
	DailyDir      = "daily"
	DailyLayout   = "02-01-06" // dd-mm-yy
	archiveLayout = "2006-01-02"
	archiveSuffix = ".archive" + NoteExt
)

var (
	// ErrArchiveExists means today's archive of a note is already taken.
	ErrArchiveExists = errors.New("archive already exists")
	// ErrInitInProgress means another run is still creating the note.
	ErrInitInProgress = errors.New("note is being initialized by another run")
)

// NoteTarget is a resolved note file.
type NoteTarget struct {
	Path          string
	AlreadyExists bool // the file was there before this call; nothing was written
}

// Resolver maps projects and dates to note files under the home root and
// initializes them on first use.
type Resolver struct {
	home    string
	heading string
	init    *atomicfile.Initializer
	logger  *logging.ScopedLogger

	// Now supplies the clock for daily notes and archives.
	Now func() time.Time
}

// NewResolver creates a resolver rooted at home. New notes get heading as their title.
func NewResolver(home, heading string, initializer *atomicfile.Initializer, logger *logging.ScopedLogger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if initializer == nil {
		initializer = atomicfile.New(logger)
	}
	return &Resolver{
		home:    home,
		heading: heading,
		init:    initializer,
		logger:  logger,
		Now:     time.Now,
	}
}

// TargetPath computes the note path for root without touching the note itself.
// For git projects this reads the repository's HEAD.
func (r *Resolver) TargetPath(root discovery.ProjectRoot) (string, error) {
	switch root.Marker {
	case discovery.Git:
		name, err := ReadNoteName(root.MarkerPath)
		if err != nil {
			return "", fmt.Errorf("resolving note for %s: %w", root.Name, err)
		}
		return filepath.Join(r.home, root.Name, filepath.FromSlash(name)+NoteExt), nil
	case discovery.BuildSystem:
		return filepath.Join(r.home, root.Name, BraindumpFile), nil
	case discovery.HomeFallback:
		return filepath.Join(r.home, BraindumpFile), nil
	default:
		return "", fmt.Errorf("unknown marker kind %d", root.Marker)
	}
}

// Resolve returns the note for root, creating it from the template if needed.
// An existing note is never rewritten.
func (r *Resolver) Resolve(root discovery.ProjectRoot) (NoteTarget, error) {
	path, err := r.TargetPath(root)
	if err != nil {
		return NoteTarget{}, err
	}
	return r.ensure(path, r.logger.With("project", root.Name, "marker", root.Marker.String()))
}

// DailyPath returns today's daily note path.
func (r *Resolver) DailyPath() string {
	return filepath.Join(r.home, DailyDir, r.Now().Format(DailyLayout)+NoteExt)
}

// Daily returns today's daily note, creating it on the first call of the day.
func (r *Resolver) Daily() (NoteTarget, error) {
	if _, err := discovery.HomeRoot(r.home); err != nil {
		return NoteTarget{}, err
	}
	return r.ensure(r.DailyPath(), r.logger.With("note", "daily"))
}

// Archive moves an existing note at path aside as
// <stem>-<yyyy-mm-dd>.archive.md and returns the archive path. A missing
// note is not an error and yields "".
func (r *Resolver) Archive(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	archive := stem + "-" + r.Now().Format(archiveLayout) + archiveSuffix
	if _, err := os.Stat(archive); err == nil {
		return "", fmt.Errorf("%s: %w", archive, ErrArchiveExists)
	}

	if err := os.Rename(path, archive); err != nil {
		return "", fmt.Errorf("archiving %s: %w", path, err)
	}
	r.logger.Info("note archived", "path", path, "archive", archive)
	return archive, nil
}

// ensure creates the note's directory, then the note itself unless it exists.
func (r *Resolver) ensure(path string, logger *logging.ScopedLogger) (NoteTarget, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NoteTarget{}, fmt.Errorf("creating note directory %s: %w", dir, err)
	}

	if _, err := os.Stat(path); err == nil {
		logger.Debug("note exists", "path", path)
		return NoteTarget{Path: path, AlreadyExists: true}, nil
	}

	res, err := r.init.Create(path, Render(r.heading))
	if err != nil {
		return NoteTarget{}, err
	}
	if res == atomicfile.Skipped {
		// Another run holds the temporary file; it may have promoted it since.
		if _, err := os.Stat(path); err == nil {
			logger.Warn("note created concurrently", "path", path)
			return NoteTarget{Path: path, AlreadyExists: true}, nil
		}
		logger.Warn("note initialization in progress elsewhere", "path", path)
		return NoteTarget{}, fmt.Errorf("%s: %w", path, ErrInitInProgress)
	}
	logger.Info("note initialized", "path", path)
	return NoteTarget{Path: path}, nil
}
