package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all budgetdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Classifier ClassifierConfig `toml:"classifier"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Export     ExportConfig     `toml:"export"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir     string `toml:"data_dir,omitempty"`
	SeedFile    string `toml:"seed_file,omitempty"`
	DefaultUnit string `toml:"default_unit,omitempty"`
	Currency    string `toml:"currency"`
}

// ClassifierConfig extends the built-in spend-type classifier. Names and
// keywords listed here are checked before the built-in lists.
type ClassifierConfig struct {
	PeopleNames    []string `toml:"people_names,omitempty"`
	ProgramNames   []string `toml:"program_names,omitempty"`
	PeopleKeywords []string `toml:"people_keywords,omitempty"`
	RulesFile      string   `toml:"rules_file,omitempty"`
}

// DaemonConfig holds settings for the background service.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	InboxDir     string `toml:"inbox_dir,omitempty"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// ExportConfig holds monthly export defaults.
type ExportConfig struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Environment variables that override the config file.
const (
	EnvDataDir     = "BUDGETDASH_DATA_DIR"
	EnvSeed        = "BUDGETDASH_SEED"
	EnvDefaultUnit = "BUDGETDASH_DEFAULT_UNIT"
	EnvAddr        = "BUDGETDASH_ADDR"
	EnvInbox       = "BUDGETDASH_INBOX"
	EnvInterval    = "BUDGETDASH_INTERVAL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "R",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8731",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Export: ExportConfig{
			Format: "xlsx",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// .env files in the working directory and the config directory are loaded
// first; environment variables then override file values.
func Load() (Config, error) {
	if err := LoadDotEnv(".env", filepath.Join(ConfigDir(), ".env")); err != nil {
		return DefaultConfig(), err
	}
	cfg, err := LoadFile(ConfigPath())
	if err != nil {
		return cfg, err
	}
	return cfg, ApplyEnv(&cfg)
}

// LoadFile reads one config file over the defaults. A missing file is not
// an error.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment,
// skipping files that do not exist. Variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with the BUDGETDASH_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		cfg.General.SeedFile = v
	}
	if v := os.Getenv(EnvDefaultUnit); v != "" {
		cfg.General.DefaultUnit = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Daemon.Addr = v
	}
	if v := os.Getenv(EnvInbox); v != "" {
		cfg.Daemon.InboxDir = v
	}
	if v := os.Getenv(EnvInterval); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive number of seconds, got %q", EnvInterval, v)
		}
		cfg.Daemon.IntervalSec = n
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
