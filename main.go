// pattern: Imperative Shell
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"baan/internal/cli"
	"baan/internal/config"
	"baan/internal/logging"
)

var version = "dev"

const logLevelEnv = "BAAN_LOG_LEVEL"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("baan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that flags after a subcommand are handled by the subcommand.
	fs.SetInterspersed(false)

	configPath := fs.StringP("config", "c", "", "config file (default: ~/.config/baan/config.yaml)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error (env "+logLevelEnv+")")
	verbose := fs.BoolP("verbose", "v", false, "also write logs to stderr")

	fs.Usage = func() {
		cli.BuildApp(version, &cli.Env{Stdout: stdout, Stderr: stderr}).PrintHelp(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *configPath == "" {
		*configPath = config.Path()
	}
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var console io.Writer
	if *verbose {
		console = stderr
	}
	logManager, err := logging.NewManager(logging.Config{
		FilePath: config.LogPath(),
		Level:    resolveLogLevel(*logLevel, os.Getenv(logLevelEnv), cfg.LogLevel),
		Console:  console,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logManager.Close() }()

	appLogger := logManager.For("app")
	appLogger.Debug("starting", "version", version, "config", *configPath, "args", strings.Join(fs.Args(), " "))

	app := cli.BuildApp(version, &cli.Env{
		Config:     cfg,
		ConfigPath: *configPath,
		Logs:       logManager,
		Stdout:     stdout,
		Stderr:     stderr,
	})

	code, err := app.Execute(fs.Args())
	if err != nil {
		code = cli.ExitCode(err)
		appLogger.Error("command failed", "error", err, "exit_code", code)
		fmt.Fprintf(stderr, "%s %v\n", cli.NewStyles(cfg.Theme).ErrorStyle().Render("Error:"), err)
		return code
	}

	appLogger.Debug("finished", "exit_code", code)
	return code
}

// resolveLogLevel picks the first non-empty level: flag, environment, config.
func resolveLogLevel(levels ...string) string {
	for _, l := range levels {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return config.DefaultLogLevel
}
