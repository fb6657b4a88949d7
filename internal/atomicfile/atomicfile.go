// pattern: Imperative Shell

// Package atomicfile creates files exactly once without ever exposing a
// partially written file under its final name.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"baan/internal/logging"
)

// ExitCodeWriteFailure is the process exit status reserved for WriteFailureError.
// It matches EX_IOERR from sysexits.h and is not used for any other failure.
const ExitCodeWriteFailure = 74

// TempExt is the extension given to the in-progress file.
const TempExt = ".tmp"

// DefaultStaleAfter is how old a leftover temporary file must be before
// Create treats it as abandoned and removes it.
const DefaultStaleAfter = 10 * time.Minute

var (
	// ErrRename is wrapped when the finished temporary file cannot be promoted.
	ErrRename = errors.New("promoting temporary file failed")
	// ErrTempBlocked is wrapped when the temporary name is taken by something
	// other than a regular file, such as a directory.
	ErrTempBlocked = errors.New("temporary path is not a regular file")
)

// WriteFailureError reports that the content could not be written. The
// temporary file has already been removed when this is returned.
type WriteFailureError struct {
	Path     string // final target
	TempPath string
	Err      error
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("writing %s (via %s): %v", e.Path, e.TempPath, e.Err)
}

func (e *WriteFailureError) Unwrap() error {
	return e.Err
}

// Result describes what Create did.
type Result int

const (
	Created Result = iota // file written and promoted
	Skipped               // fresh temporary file present; another run got there first
)

func (r Result) String() string {
	if r == Skipped {
		return "skipped"
	}
	return "created"
}

// Initializer performs the create-temp, write, rename sequence.
type Initializer struct {
	// Write writes content to the freshly created temporary file. Nil means f.Write.
	Write func(f *os.File, content []byte) error
	// StaleAfter is the age past which a leftover temporary file is
	// removed and creation retried. Zero means DefaultStaleAfter.
	StaleAfter time.Duration
	// Now returns the current time. Nil means time.Now.
	Now    func() time.Time
	logger *logging.ScopedLogger
}

// New creates an Initializer that logs to logger (nil for no logging).
func New(logger *logging.ScopedLogger) *Initializer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Initializer{logger: logger}
}

// TempPath returns the temporary name used while creating target:
// same directory and stem, with TempExt in place of the extension.
func TempPath(target string) string {
	return strings.TrimSuffix(target, filepath.Ext(target)) + TempExt
}

// Create writes content to target. The parent directory must exist.
func (i *Initializer) Create(target string, content []byte) (Result, error) {
	tmp := TempPath(target)
	logger := i.logger.With("path", target)

	f, err := i.openTemp(tmp, logger)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			logger.Warn("temporary file already exists, skipping initialization", "temp", tmp)
			return Skipped, nil
		}
		return Created, err
	}

	writeErr := i.write(f, content)
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to remove temporary file", "temp", tmp, "error", err)
		}
		logger.Error("write failed", "temp", tmp, "error", writeErr)
		return Created, &WriteFailureError{Path: target, TempPath: tmp, Err: writeErr}
	}

	if err := os.Rename(tmp, target); err != nil {
		return Created, fmt.Errorf("renaming %s to %s: %v: %w", tmp, target, err, ErrRename)
	}

	logger.Debug("file initialized", "bytes", len(content))
	return Created, nil
}

// openTemp exclusively creates tmp. A regular file left behind longer than
// StaleAfter is removed and the create retried once; a fresh one surfaces as
// fs.ErrExist. Anything else at tmp is ErrTempBlocked.
func (i *Initializer) openTemp(tmp string, logger *logging.ScopedLogger) (*os.File, error) {
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating temporary file %s: %w", tmp, err)
	}

	info, statErr := os.Lstat(tmp)
	if statErr != nil {
		return nil, fmt.Errorf("inspecting temporary file %s: %w", tmp, statErr)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s (%s): %w", tmp, info.Mode().Type(), ErrTempBlocked)
	}

	age := i.now().Sub(info.ModTime())
	if age < i.staleAfter() {
		return nil, err
	}

	logger.Warn("removing stale temporary file", "temp", tmp, "age", age.String())
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale temporary file %s: %w", tmp, err)
	}
	f, err = os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating temporary file %s: %w", tmp, err)
	}
	return f, err
}

func (i *Initializer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Initializer) staleAfter() time.Duration {
	if i.StaleAfter > 0 {
		return i.StaleAfter
	}
	return DefaultStaleAfter
}

func (i *Initializer) write(f *os.File, content []byte) error {
	if i.Write != nil {
		return i.Write(f, content)
	}
	_, err := f.Write(content)
	return err
}
