// pattern: Imperative Shell

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"baan/internal/logging"
)

// Config describes a foreground child process.
type Config struct {
	Name   string
	Binary string
	Args   []string
	Dir    string

	// Stdio defaults to the current process's streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// EditorConfig builds the command that opens path in editor. The editor
// string may carry arguments, e.g. "code -w".
func EditorConfig(editor, path, dir string) (Config, error) {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return Config{}, errors.New("editor command is empty")
	}
	args := append(fields[1:len(fields):len(fields)], path)
	return Config{
		Name:   "editor",
		Binary: fields[0],
		Args:   args,
		Dir:    dir,
	}, nil
}

// Run starts the process with the terminal attached and waits for it.
// A process that starts and exits non-zero is not an error: its exit code is
// returned with a nil error.
func Run(ctx context.Context, cfg Config, logger *logging.ScopedLogger) (int, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	cmd := exec.CommandContext(ctx, cfg.Binary, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if cfg.Stdin != nil {
		cmd.Stdin = cfg.Stdin
	}
	if cfg.Stdout != nil {
		cmd.Stdout = cfg.Stdout
	}
	if cfg.Stderr != nil {
		cmd.Stderr = cfg.Stderr
	}

	logger.Info("starting process", "process", cfg.Name, "binary", cfg.Binary, "args", fmt.Sprintf("%v", cfg.Args))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			logger.Warn("process exited", "process", cfg.Name, "exit_code", code)
			return code, nil
		}
		logger.Error("failed to start process", "process", cfg.Name, "error", err)
		return -1, fmt.Errorf("running %s: %w", cfg.Binary, err)
	}

	logger.Info("process exited cleanly", "process", cfg.Name)
	return 0, nil
}
