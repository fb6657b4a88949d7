// pattern: Imperative Shell

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "baan"

// DefaultMarkers is the marker priority list used when the config names none.
// Version control comes first so it wins over any manifest in the same directory.
var DefaultMarkers = []string{
	".git",
	"Cargo.toml",
	"go.mod",
	"package.json",
	"pyproject.toml",
	"pom.xml",
	"build.gradle",
	"CMakeLists.txt",
	"Makefile",
}

const (
	DefaultMaxDepth = 8
	DefaultHeading  = "TODO"
	DefaultTheme    = "mocha"
	DefaultLogLevel = "info"
)

type Config struct {
	Editor   string         `yaml:"editor,omitempty"`
	HomeDir  string         `yaml:"home_dir"`
	Markers  []string       `yaml:"markers"`
	MaxDepth int            `yaml:"max_depth"`
	Template TemplateConfig `yaml:"template"`
	Theme    string         `yaml:"theme"`
	LogLevel string         `yaml:"log_level"`
}

type TemplateConfig struct {
	Heading string `yaml:"heading"`
}

func DefaultConfig() Config {
	return Config{
		HomeDir:  filepath.Join("~", ".local", "share", appName),
		Markers:  append([]string(nil), DefaultMarkers...),
		MaxDepth: DefaultMaxDepth,
		Template: TemplateConfig{Heading: DefaultHeading},
		Theme:    DefaultTheme,
		LogLevel: DefaultLogLevel,
	}
}

// LoadFrom reads the config at configPath. A missing file yields the defaults.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	cfg.normalize()
	return cfg, nil
}

// Marshal renders the config as YAML, as written by `baan config init`.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// normalize restores defaults for keys that were present but empty.
func (c *Config) normalize() {
	def := DefaultConfig()
	if strings.TrimSpace(c.HomeDir) == "" {
		c.HomeDir = def.HomeDir
	}
	if len(c.Markers) == 0 {
		c.Markers = def.Markers
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if strings.TrimSpace(c.Template.Heading) == "" {
		c.Template.Heading = def.Template.Heading
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// ResolveHomeDir expands a leading ~ in HomeDir and makes it absolute.
func (c *Config) ResolveHomeDir() (string, error) {
	dir, err := ExpandHome(c.HomeDir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

// ResolveEditor returns the configured editor, falling back to $VISUAL then $EDITOR.
func (c *Config) ResolveEditor() (string, error) {
	if e := strings.TrimSpace(c.Editor); e != "" {
		return e, nil
	}
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(env)); e != "" {
			return e, nil
		}
	}
	return "", fmt.Errorf("no editor configured and $VISUAL/$EDITOR are unset")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// LogPath returns the default log file location.
func LogPath() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), appName+".log")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(fallback, appName)
	}

	return filepath.Join(home, fallback, appName)
}
