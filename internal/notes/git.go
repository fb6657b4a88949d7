// pattern: Imperative Shell

package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	headFile        = "HEAD"
	branchRefPrefix = "ref: refs/heads/"
	gitdirPrefix    = "gitdir:"
	detachedPrefix  = "HEAD:"
	shortHashLen    = 8
)

var (
	// ErrGitHeadUnreadable means a .git marker exists but its HEAD cannot be read.
	ErrGitHeadUnreadable = errors.New("git HEAD unreadable")
	// ErrInvalidBranchName means the branch would escape the project's note directory.
	ErrInvalidBranchName = errors.New("invalid branch name")
)

// NoteName derives the note name from the contents of a HEAD file.
// A symbolic branch ref yields the branch name, slashes included; anything
// else is treated as a detached commit hash and yields "HEAD:" plus at most
// the first eight characters of the hash.
func NoteName(head string) string {
	trimmed := strings.TrimRightFunc(head, unicode.IsSpace)
	if branch, ok := strings.CutPrefix(trimmed, branchRefPrefix); ok {
		return branch
	}

	hash := strings.TrimSpace(head)
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	return detachedPrefix + hash
}

// ValidateNoteName rejects names that are empty, absolute, or contain
// empty, "." or ".." path segments.
func ValidateNoteName(name string) error {
	if name == "" || name == detachedPrefix {
		return fmt.Errorf("%w: empty name", ErrInvalidBranchName)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidBranchName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("%w: %q has an empty, '.' or '..' segment", ErrInvalidBranchName, name)
		}
	}
	return nil
}

// ReadNoteName reads HEAD for the repository whose marker is markerPath and
// returns the validated note name.
func ReadNoteName(markerPath string) (string, error) {
	dir, err := gitDir(markerPath)
	if err != nil {
		return "", err
	}

	headPath := filepath.Join(dir, headFile)
	data, err := os.ReadFile(headPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %v: %w", headPath, err, ErrGitHeadUnreadable)
	}

	name := NoteName(string(data))
	if err := ValidateNoteName(name); err != nil {
		return "", fmt.Errorf("%s: %w", headPath, err)
	}
	return name, nil
}

// gitDir returns the git metadata directory for a .git marker. Worktrees and
// submodules use a .git file holding "gitdir: <path>" instead of a directory.
func gitDir(markerPath string) (string, error) {
	info, err := os.Stat(markerPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %v: %w", markerPath, err, ErrGitHeadUnreadable)
	}
	if info.IsDir() {
		return markerPath, nil
	}

	data, err := os.ReadFile(markerPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %v: %w", markerPath, err, ErrGitHeadUnreadable)
	}

	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, gitdirPrefix)
	if !ok {
		return "", fmt.Errorf("%s is not a gitdir link: %w", markerPath, ErrGitHeadUnreadable)
	}

	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(markerPath), target)
	}
	return target, nil
}
