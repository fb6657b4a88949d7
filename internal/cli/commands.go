// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"baan/internal/atomicfile"
	"baan/internal/config"
	"baan/internal/discovery"
	"baan/internal/logging"
	"baan/internal/notes"
	"baan/internal/process"
)

// LaunchFunc runs the editor and returns its exit status.
type LaunchFunc func(ctx context.Context, cfg process.Config, logger *logging.ScopedLogger) (int, error)

// Env carries the collaborators commands need. Zero fields get process defaults.
type Env struct {
	Config     config.Config
	ConfigPath string
	Logs       logging.LoggerProvider
	Stdout     io.Writer
	Stderr     io.Writer
	Getwd      func() (string, error)
	Launch     LaunchFunc
	Now        func() time.Time
}

func (e *Env) withDefaults() *Env {
	out := *e
	if out.ConfigPath == "" {
		out.ConfigPath = config.Path()
	}
	if out.Logs == nil {
		out.Logs = nopProvider{}
	}
	if out.Stdout == nil {
		out.Stdout = os.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = os.Stderr
	}
	if out.Getwd == nil {
		out.Getwd = os.Getwd
	}
	if out.Launch == nil {
		out.Launch = process.Run
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

type nopProvider struct{}

func (nopProvider) For(string) *logging.ScopedLogger { return logging.NopLogger() }

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	var wf *atomicfile.WriteFailureError
	if errors.As(err, &wf) {
		return atomicfile.ExitCodeWriteFailure
	}
	return 1
}

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, env *Env) *App {
	env = env.withDefaults()
	app := NewApp(version)
	app.SetOutput(env.Stderr)

	app.AddCommand(&Command{
		Name:    "open",
		Summary: "Open the note for the current project",
		Usage:   "Usage: baan open [--dir DIR] [--print]",
		Run:     env.runOpen,
	})
	app.SetDefault("open")

	app.AddCommand(&Command{
		Name:    "daily",
		Summary: "Open today's daily note",
		Usage:   "Usage: baan daily [--print]",
		Run:     env.runDaily,
	})

	app.AddCommand(&Command{
		Name:    "new",
		Summary: "Archive the current project note and start a fresh one",
		Usage:   "Usage: baan new [--dir DIR] [--print]",
		Run:     env.runNew,
	})

	app.AddCommand(&Command{
		Name:    "where",
		Summary: "Show how the current directory resolves, without creating anything",
		Usage:   "Usage: baan where [--dir DIR] [--plain]",
		Run:     env.runWhere,
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: baan version",
		Run: func(args []string) (int, error) {
			fmt.Fprintln(env.Stdout, version)
			return 0, nil
		},
	})

	configGroup := app.AddGroup("config", "Inspect or initialize the configuration")
	configGroup.Default = "show"
	registerConfigCommands(configGroup, env)

	return app
}

// noteFlags are shared by the commands that resolve a note.
type noteFlags struct {
	dir   string
	print bool
	plain bool
}

func (e *Env) parseFlags(name string, args []string, withDir, withPlain bool) (noteFlags, error) {
	var nf noteFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.Stderr)
	if withDir {
		fs.StringVarP(&nf.dir, "dir", "d", "", "start directory (default: current directory)")
	}
	if withPlain {
		fs.BoolVar(&nf.plain, "plain", false, "print without colors")
	} else {
		fs.BoolVarP(&nf.print, "print", "p", false, "print the note path instead of opening the editor")
	}
	if err := fs.Parse(args); err != nil {
		return nf, err
	}
	if fs.NArg() > 0 {
		return nf, fmt.Errorf("%s: unexpected arguments %v", name, fs.Args())
	}
	if withDir && nf.dir == "" {
		wd, err := e.Getwd()
		if err != nil {
			return nf, fmt.Errorf("getting working directory: %w", err)
		}
		nf.dir = wd
	}
	return nf, nil
}

// session holds the validated home root and the components built from config.
type session struct {
	home     discovery.ProjectRoot
	scanner  *discovery.Scanner
	resolver *notes.Resolver
}

func (e *Env) newSession() (*session, error) {
	dir, err := e.Config.ResolveHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, discovery.ErrHomeDirectoryMissing)
	}
	home, err := discovery.HomeRoot(dir)
	if err != nil {
		return nil, err
	}

	resolver := notes.NewResolver(
		home.CanonicalPath,
		e.Config.Template.Heading,
		atomicfile.New(e.Logs.For("atomicfile")),
		e.Logs.For("notes"),
	)
	resolver.Now = e.Now

	return &session{
		home:     home,
		scanner:  discovery.NewScanner(e.Config.Markers, e.Config.MaxDepth, e.Logs.For("discovery")),
		resolver: resolver,
	}, nil
}

func (s *session) project(dir string) (discovery.ProjectRoot, error) {
	return s.scanner.Resolve(dir, s.home.CanonicalPath)
}

func (e *Env) runOpen(args []string) (int, error) {
	nf, err := e.parseFlags("open", args, true, false)
	if err != nil {
		return 1, err
	}
	s, err := e.newSession()
	if err != nil {
		return 1, err
	}
	root, err := s.project(nf.dir)
	if err != nil {
		return 1, err
	}
	target, err := s.resolver.Resolve(root)
	if err != nil {
		return 1, err
	}
	return e.hand(target.Path, s.home.CanonicalPath, nf.print)
}

func (e *Env) runDaily(args []string) (int, error) {
	nf, err := e.parseFlags("daily", args, false, false)
	if err != nil {
		return 1, err
	}
	s, err := e.newSession()
	if err != nil {
		return 1, err
	}
	target, err := s.resolver.Daily()
	if err != nil {
		return 1, err
	}
	return e.hand(target.Path, s.home.CanonicalPath, nf.print)
}

func (e *Env) runNew(args []string) (int, error) {
	nf, err := e.parseFlags("new", args, true, false)
	if err != nil {
		return 1, err
	}
	s, err := e.newSession()
	if err != nil {
		return 1, err
	}
	root, err := s.project(nf.dir)
	if err != nil {
		return 1, err
	}
	path, err := s.resolver.TargetPath(root)
	if err != nil {
		return 1, err
	}
	archive, err := s.resolver.Archive(path)
	if err != nil {
		return 1, err
	}
	if archive != "" {
		fmt.Fprintf(e.Stderr, "archived %s\n", archive)
	}
	target, err := s.resolver.Resolve(root)
	if err != nil {
		return 1, err
	}
	return e.hand(target.Path, s.home.CanonicalPath, nf.print)
}

func (e *Env) runWhere(args []string) (int, error) {
	nf, err := e.parseFlags("where", args, true, true)
	if err != nil {
		return 1, err
	}
	s, err := e.newSession()
	if err != nil {
		return 1, err
	}
	root, err := s.project(nf.dir)
	if err != nil {
		return 1, err
	}
	path, err := s.resolver.TargetPath(root)
	if err != nil {
		return 1, err
	}

	exists := "no"
	if _, err := os.Stat(path); err == nil {
		exists = "yes"
	}
	projectRoot := root.CanonicalPath
	if root.Marker == discovery.HomeFallback {
		projectRoot = "-"
	}

	out := NewStyles(e.Config.Theme).Report([]Field{
		{Label: "Project", Value: root.Name, Accent: true},
		{Label: "Kind", Value: root.Marker.String()},
		{Label: "Root", Value: projectRoot, Muted: projectRoot == "-"},
		{Label: "Note", Value: path, Accent: true},
		{Label: "Exists", Value: exists, Muted: exists == "no"},
	})
	if nf.plain {
		out = Plain(out)
	}
	fmt.Fprint(e.Stdout, out)
	return 0, nil
}

// hand passes the note to the editor, or prints its path when printOnly is set.
func (e *Env) hand(path, home string, printOnly bool) (int, error) {
	if printOnly {
		fmt.Fprintln(e.Stdout, path)
		return 0, nil
	}

	editor, err := e.Config.ResolveEditor()
	if err != nil {
		return 1, err
	}
	pc, err := process.EditorConfig(editor, path, home)
	if err != nil {
		return 1, err
	}
	logger := e.Logs.For("process")
	code, err := e.Launch(context.Background(), pc, logger)
	if code == atomicfile.ExitCodeWriteFailure {
		// Keep the reserved status unambiguous.
		logger.Warn("editor exit status collides with reserved status, reporting 1", "editor_status", code)
		return 1, err
	}
	return code, err
}

func registerConfigCommands(g *Group, env *Env) {
	g.AddCommand(&Command{
		Name:    "show",
		Summary: "Print the effective configuration as YAML",
		Usage:   "Usage: baan config show",
		Run: func(args []string) (int, error) {
			data, err := env.Config.Marshal()
			if err != nil {
				return 1, err
			}
			_, _ = env.Stdout.Write(data)
			return 0, nil
		},
	})

	g.AddCommand(&Command{
		Name:    "path",
		Summary: "Print the configuration file location",
		Usage:   "Usage: baan config path",
		Run: func(args []string) (int, error) {
			fmt.Fprintln(env.Stdout, env.ConfigPath)
			return 0, nil
		},
	})

	g.AddCommand(&Command{
		Name:    "init",
		Summary: "Write a default configuration file if none exists",
		Usage:   "Usage: baan config init",
		Run: func(args []string) (int, error) {
			return runConfigInit(env)
		},
	})
}

func runConfigInit(env *Env) (int, error) {
	if _, err := os.Stat(env.ConfigPath); err == nil {
		fmt.Fprintf(env.Stderr, "config already exists at %s\n", env.ConfigPath)
		return 0, nil
	}

	data, err := config.DefaultConfig().Marshal()
	if err != nil {
		return 1, err
	}
	if err := os.MkdirAll(filepath.Dir(env.ConfigPath), 0755); err != nil {
		return 1, fmt.Errorf("creating config directory: %w", err)
	}
	res, err := atomicfile.New(env.Logs.For("atomicfile")).Create(env.ConfigPath, data)
	if err != nil {
		return 1, err
	}
	if res == atomicfile.Skipped {
		return 1, fmt.Errorf("config at %s is being written by another run", env.ConfigPath)
	}
	fmt.Fprintf(env.Stdout, "wrote %s\n", env.ConfigPath)
	return 0, nil
}
