// Package config assembles runtime settings from defaults, an optional
// YAML file, an optional .env file and TRACKER_* environment variables.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ciclofficina/tracker/internal/llm"
)

type Config struct {
	// DBPath empty means the store default location.
	DBPath        string     `yaml:"db"`
	LogMode       string     `yaml:"log_mode"`
	LogLevel      string     `yaml:"log_level"`
	ListenAddr    string     `yaml:"listen"`
	CurriculumDir string     `yaml:"curriculum_dir"`
	LLM           llm.Config `yaml:"llm"`
}

func Default() Config {
	return Config{
		LogMode:       "dev",
		LogLevel:      "info",
		ListenAddr:    ":8080",
		CurriculumDir: "curriculum",
		LLM:           llm.DefaultConfig(),
	}
}

// Options says where to look for files. Empty paths use the defaults:
// TRACKER_CONFIG or $XDG_CONFIG_HOME/tracker/config.yaml, and ./.env.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// Load builds the configuration. A file named explicitly must exist;
// default locations are skipped when absent.
func Load(opts Options) (*Config, error) {
	envFile, explicitEnv := opts.EnvFile, opts.EnvFile != ""
	if !explicitEnv {
		envFile = ".env"
	}
	// Variables already set in the process win over the .env file.
	if err := godotenv.Load(envFile); err != nil && (explicitEnv || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := Default()

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		if p := os.Getenv("TRACKER_CONFIG"); p != "" {
			path, explicit = p, true
		} else {
			path = defaultConfigPath()
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.LLM.Discover()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays TRACKER_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for key, dst := range map[string]*string{
		"TRACKER_DB":             &c.DBPath,
		"TRACKER_LOG_MODE":       &c.LogMode,
		"TRACKER_LOG_LEVEL":      &c.LogLevel,
		"TRACKER_LISTEN":         &c.ListenAddr,
		"TRACKER_CURRICULUM_DIR": &c.CurriculumDir,
	} {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	c.LLM.ApplyEnv(getenv)
}

// Validate rejects settings no component can use. The LLM section is
// checked only when a feature needs it.
func (c Config) Validate() error {
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("log mode must be dev or prod, got %q", c.LogMode)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tracker", "config.yaml")
}
