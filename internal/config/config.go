// Package config handles widow.toml run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const FileName = "widow.toml"

// Config represents a widow.toml file.
type Config struct {
	Run    Run    `toml:"run"`
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Run configures program execution.
type Run struct {
	Backend   string `toml:"backend"`
	MaxSteps  int    `toml:"max_steps"`
	MaxFrames int    `toml:"max_frames"`
	Trace     bool   `toml:"trace"`
}

// Output configures console and bytecode output.
type Output struct {
	Color           bool `toml:"color"`
	BytecodeVersion int  `toml:"bytecode_version"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Defaults returns the configuration used when no widow.toml exists.
func Defaults() *Config {
	return &Config{
		Run:    Run{Backend: "vm", MaxFrames: 1024},
		Output: Output{Color: true, BytecodeVersion: 2},
		Log:    Log{Level: "warn"},
	}
}

// Load parses the config file at path. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Defaults()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a widow.toml file and loads
// it. Returns nil if no config is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Run.Backend {
	case "vm", "tree":
	default:
		return fmt.Errorf("run.backend must be \"vm\" or \"tree\", got %q", c.Run.Backend)
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("run.max_steps must not be negative, got %d", c.Run.MaxSteps)
	}
	if c.Run.MaxFrames < 1 {
		return fmt.Errorf("run.max_frames must be at least 1, got %d", c.Run.MaxFrames)
	}
	if v := c.Output.BytecodeVersion; v != 1 && v != 2 {
		return fmt.Errorf("output.bytecode_version must be 1 or 2, got %d", v)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Resolve loads the explicit path when given, otherwise the nearest
// widow.toml above startDir, otherwise the defaults.
func Resolve(path, startDir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	c, err := FindAndLoad(startDir)
	if err != nil || c != nil {
		return c, err
	}
	return Defaults(), nil
}
