package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/five82/reviewdeck/internal/logger"
)

// Config holds reviewdeck's runtime settings.
type Config struct {
	APIBase             string        `mapstructure:"api_base"`
	WikisFile           string        `mapstructure:"wikis_file"`
	DisplayLimit        int           `mapstructure:"display_limit"`
	BackfillConcurrency int           `mapstructure:"backfill_concurrency"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	Prefs               PrefsConfig   `mapstructure:"prefs"`
	Log                 LogConfig     `mapstructure:"log"`

	// Path is the config file that was read, empty when defaults were used.
	Path string `mapstructure:"-"`
}

// PrefsConfig selects the preference backend.
type PrefsConfig struct {
	Backend string `mapstructure:"backend"` // "toml" or "sqlite"
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
	File   string `mapstructure:"file"`
}

const (
	defaultConfigPath     = "~/.config/reviewdeck/config.toml"
	defaultAPIBase        = "http://127.0.0.1:8000"
	defaultLogFile        = "~/.local/share/reviewdeck/reviewdeck.log"
	defaultDisplayLimit   = 10
	defaultConcurrency    = 8
	defaultRequestTimeout = 10 * time.Second
	envPrefix             = "REVIEWDECK"
)

// Binder attaches extra sources (typically cobra flags) to v before the
// configuration is decoded.
type Binder func(v *viper.Viper) error

// Load reads the config file at path (default location when empty), applies
// REVIEWDECK_* environment overrides and any binders, and normalizes the
// result. A missing file means defaults.
func Load(path string, binders ...Binder) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	readPath := ""
	if _, statErr := os.Stat(resolved); statErr == nil {
		v.SetConfigFile(resolved)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		readPath = resolved
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", statErr)
	}

	for _, bind := range binders {
		if err := bind(v); err != nil {
			return Config{}, fmt.Errorf("bind config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Path = readPath

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	cfg := Config{
		APIBase:             defaultAPIBase,
		DisplayLimit:        defaultDisplayLimit,
		BackfillConcurrency: defaultConcurrency,
		RequestTimeout:      defaultRequestTimeout,
		Prefs:               PrefsConfig{Backend: "toml"},
		Log:                 LogConfig{Level: "info", Format: "json", File: defaultLogFile},
	}
	_ = cfg.normalize()
	return cfg
}

// LoggerConfig returns the logging settings in the logger's shape.
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", defaultAPIBase)
	v.SetDefault("wikis_file", "")
	v.SetDefault("display_limit", defaultDisplayLimit)
	v.SetDefault("backfill_concurrency", defaultConcurrency)
	v.SetDefault("poll_interval", "0s")
	v.SetDefault("request_timeout", defaultRequestTimeout.String())
	v.SetDefault("prefs.backend", "toml")
	v.SetDefault("prefs.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", defaultLogFile)
}

func (c *Config) normalize() error {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	if c.DisplayLimit <= 0 {
		c.DisplayLimit = defaultDisplayLimit
	}
	if c.BackfillConcurrency < 0 {
		c.BackfillConcurrency = 0
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}

	c.Prefs.Backend = strings.ToLower(strings.TrimSpace(c.Prefs.Backend))
	switch c.Prefs.Backend {
	case "":
		c.Prefs.Backend = "toml"
	case "toml", "sqlite":
	default:
		return fmt.Errorf("invalid prefs.backend %q (want toml or sqlite)", c.Prefs.Backend)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "":
		c.Log.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q (want json or console)", c.Log.Format)
	}

	c.WikisFile = mustExpandOptional(c.WikisFile)
	c.Prefs.Path = mustExpandOptional(c.Prefs.Path)
	c.Log.File = mustExpandOptional(c.Log.File)
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpandOptional(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
