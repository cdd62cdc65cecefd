// Package config handles loading tasks.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/tasks/internal/paths"
)

// ProjectFile is the name of the per-directory config file.
const ProjectFile = "tasks.toml"

// Environment variables that override file configuration.
const (
	EnvStorageBackend = "TASKS_STORAGE_BACKEND"
	EnvStoragePath    = "TASKS_STORAGE_PATH"
	EnvLogLevel       = "TASKS_LOG_LEVEL"
)

// Defaults applied when neither file sets a value.
const (
	DefaultBackend          = "file"
	DefaultServerAddr       = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultLogOutput        = "stderr"
	DefaultLogMaxSizeMB     = 100
	DefaultReminderInterval = time.Minute
)

// Config represents the tasks.toml configuration file.
type Config struct {
	Storage   Storage   `toml:"storage"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
	Reminders Reminders `toml:"reminders"`
}

// Storage selects where tasks are kept.
type Storage struct {
	// Backend is one of memory, file, or sqlite.
	Backend string `toml:"backend"`

	// Path is the task file or database. Defaults to a file in the data directory.
	Path string `toml:"path"`
}

// Server configures `tk serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures the zap logger.
type Log struct {
	// Level is debug, info, warn, or error.
	Level string `toml:"level"`

	// Format is console or json.
	Format string `toml:"format"`

	// Output is stderr, stdout, file, or a file path. "file" logs to tk.log
	// in the state directory. Files are rotated.
	Output string `toml:"output"`

	// MaxSizeMB is the size at which a log file is rotated.
	MaxSizeMB int `toml:"max-size-mb"`
}

// Reminders configures reminder polling.
type Reminders struct {
	// Interval is a Go duration string such as "1m" or "30s".
	Interval string `toml:"interval"`
}

// Load loads configuration from dir and the global config file, applies
// environment overrides, and fills in defaults.
func Load(dir string) (*Config, error) {
	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	applyEnv(merged)
	if err := applyDefaults(merged); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend %q must be one of memory, file, sqlite", c.Storage.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}
	if _, err := c.ReminderInterval(); err != nil {
		return err
	}
	return nil
}

// ReminderInterval parses the reminder polling interval.
func (c *Config) ReminderInterval() (time.Duration, error) {
	if c.Reminders.Interval == "" {
		return DefaultReminderInterval, nil
	}
	d, err := time.ParseDuration(c.Reminders.Interval)
	if err != nil {
		return 0, fmt.Errorf("reminders.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("reminders.interval must be positive, got %s", d)
	}
	return d, nil
}

func globalConfigPath() (string, error) {
	dir, err := paths.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Storage.Backend = mergeString(projectMeta.IsDefined("storage", "backend"), projectCfg.Storage.Backend, globalCfg.Storage.Backend)
	merged.Storage.Path = mergeString(projectMeta.IsDefined("storage", "path"), projectCfg.Storage.Path, globalCfg.Storage.Path)
	merged.Server.Addr = mergeString(projectMeta.IsDefined("server", "addr"), projectCfg.Server.Addr, globalCfg.Server.Addr)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)
	merged.Log.Format = mergeString(projectMeta.IsDefined("log", "format"), projectCfg.Log.Format, globalCfg.Log.Format)
	merged.Log.Output = mergeString(projectMeta.IsDefined("log", "output"), projectCfg.Log.Output, globalCfg.Log.Output)
	merged.Reminders.Interval = mergeString(projectMeta.IsDefined("reminders", "interval"), projectCfg.Reminders.Interval, globalCfg.Reminders.Interval)
	if projectMeta.IsDefined("log", "max-size-mb") {
		merged.Log.MaxSizeMB = projectCfg.Log.MaxSizeMB
	} else if globalMeta.IsDefined("log", "max-size-mb") {
		merged.Log.MaxSizeMB = globalCfg.Log.MaxSizeMB
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvStorageBackend)); v != "" {
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) error {
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultBackend
	}
	if cfg.Storage.Path == "" && cfg.Storage.Backend != "memory" {
		dir, err := paths.DefaultDataDir()
		if err != nil {
			return err
		}
		name := "tasks.json"
		if cfg.Storage.Backend == "sqlite" {
			name = "tasks.db"
		}
		cfg.Storage.Path = filepath.Join(dir, name)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}
	if cfg.Log.Output == "file" {
		dir, err := paths.DefaultLogDir()
		if err != nil {
			return err
		}
		cfg.Log.Output = filepath.Join(dir, "tk.log")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	return nil
}
