// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// ErrUnknownCommand is returned for a command or group name that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Command represents a single CLI command with its metadata and handler.
// Run returns the process exit status to use when err is nil.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) (int, error)
}

// Group represents a group of related commands.
type Group struct {
	Name     string
	Summary  string
	Default  string // subcommand run when none is given
	Commands map[string]*Command
}

// App represents the top-level CLI application with groups and ungrouped commands.
type App struct {
	groups         map[string]*Group
	commands       map[string]*Command
	defaultCommand string
	version        string
	stderr         io.Writer
}

// NewApp creates a new CLI application with the given version.
func NewApp(version string) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
		stderr:   os.Stderr,
	}
}

// SetOutput redirects help and usage text.
func (a *App) SetOutput(w io.Writer) {
	a.stderr = w
}

// SetDefault names the command run when no arguments are given.
func (a *App) SetDefault(name string) {
	a.defaultCommand = name
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
}

// Execute dispatches the CLI arguments to the appropriate command and
// returns the exit status it produced.
func (a *App) Execute(args []string) (int, error) {
	if len(args) == 0 {
		if cmd, ok := a.commands[a.defaultCommand]; ok {
			return cmd.Run(nil)
		}
		a.PrintHelp(a.stderr)
		return 0, nil
	}

	cmdName := args[0]
	if cmdName == "help" || cmdName == "--help" || cmdName == "-h" {
		a.PrintHelp(a.stderr)
		return 0, nil
	}

	if cmd, ok := a.commands[cmdName]; ok {
		return a.run(cmd, args[1:])
	}

	if group, ok := a.groups[cmdName]; ok {
		if len(args) < 2 {
			if cmd, ok := group.Commands[group.Default]; ok {
				return cmd.Run(nil)
			}
			group.PrintHelp(a.stderr)
			return 0, nil
		}
		if args[1] == "help" || args[1] == "--help" || args[1] == "-h" {
			group.PrintHelp(a.stderr)
			return 0, nil
		}

		if cmd, ok := group.Commands[args[1]]; ok {
			return a.run(cmd, args[2:])
		}

		group.PrintHelp(a.stderr)
		return 1, fmt.Errorf("%w: %s %s", ErrUnknownCommand, cmdName, args[1])
	}

	a.PrintHelp(a.stderr)
	return 1, fmt.Errorf("%w: %s", ErrUnknownCommand, cmdName)
}

func (a *App) run(cmd *Command, args []string) (int, error) {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
			return 0, nil
		}
	}
	return cmd.Run(args)
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "baan %s\n\nUsage: baan [options] [command]\n\n", a.version)
	fmt.Fprintf(w, "Commands:\n")

	for _, name := range slices.Sorted(maps.Keys(a.commands)) {
		cmd := a.commands[name]
		summary := cmd.Summary
		if name == a.defaultCommand {
			summary += " (default)"
		}
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, summary)
	}
	for _, name := range slices.Sorted(maps.Keys(a.groups)) {
		group := a.groups[name]
		fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
	}

	fmt.Fprintf(w, "\nUse \"baan <command> --help\" for command details.\n\n")
	fmt.Fprintf(w, "Options:\n")
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: baan %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	names := slices.Sorted(maps.Keys(g.Commands))
	for _, name := range names {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"baan %s <command> --help\" for command details.\n", g.Name)
}
