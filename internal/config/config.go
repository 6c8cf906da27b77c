// Package config holds the host-side run configuration. Settings come
// from an optional YAML file so scripts themselves stay free of any
// host concerns.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the working directory unless
// LOX_CONFIG points elsewhere.
const ConfigFileName = "lox.yaml"

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "LOX_CONFIG"

// DefaultPrompt is printed before each REPL line.
const DefaultPrompt = "> "

// HistoryFileName is the default REPL history database, placed in the
// user's home directory.
const HistoryFileName = ".lox_history.db"

// Config is the host configuration. Zero values mean defaults.
type Config struct {
	// Trace logs every executed instruction
	Trace bool `yaml:"trace"`

	// Disasm dumps each compiled chunk before running it
	Disasm bool `yaml:"disasm"`

	// History is the path of the REPL history database
	History string `yaml:"history"`

	// Prompt is the REPL prompt
	Prompt string `yaml:"prompt"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Prompt: DefaultPrompt}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.History = filepath.Join(home, HistoryFileName)
	}
	return cfg
}

// Load reads the configuration file if one exists. A missing file is
// not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return cfg, nil
}
