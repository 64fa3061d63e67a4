package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/portal/internal/search"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Pager   PagerConfig   `mapstructure:"pager"`
	Search  SearchConfig  `mapstructure:"search"`
	Studio  StudioConfig  `mapstructure:"studio"`
	UI      UIConfig      `mapstructure:"ui"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig holds backend connection settings
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`     // Per-request timeout, also bounds a page fetch
	MaxRetries int           `mapstructure:"max_retries"` // GET requests only
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// PagerConfig tunes infinite scrolling
type PagerConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	ReentryDelay  time.Duration `mapstructure:"reentry_delay"`
	PrefetchRows  int           `mapstructure:"prefetch_rows"` // Rows past the viewport that still count as visible
	NotesPageSize int           `mapstructure:"notes_page_size"`
}

// SearchConfig holds semantic search settings
type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

// StudioConfig holds AI generation settings
type StudioConfig struct {
	UseLLMJudge  bool `mapstructure:"use_llm_judge"`
	HistoryLimit int  `mapstructure:"history_limit"` // Entries kept locally, 0 keeps all
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme    string `mapstructure:"theme"`
	WordWrap int    `mapstructure:"word_wrap"`
}

// HistoryConfig holds the local generation history location
type HistoryConfig struct {
	Path string `mapstructure:"path"` // Empty keeps history in memory only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // e.g. ":9090", empty disables
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api/v1",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
		},
		Pager: PagerConfig{
			Debounce:      500 * time.Millisecond,
			ReentryDelay:  100 * time.Millisecond,
			PrefetchRows:  3,
			NotesPageSize: 20,
		},
		Search: SearchConfig{
			Limit: search.DefaultLimit,
		},
		Studio: StudioConfig{
			UseLLMJudge:  true,
			HistoryLimit: 200,
		},
		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 80,
		},
		History: HistoryConfig{
			Path: defaultHistoryPath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "portal.log")
}

// defaultHistoryPath returns the default history database directory
func defaultHistoryPath() string {
	return filepath.Join(defaultDataPath(), "history")
}

func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "portal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "portal")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "portal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "portal")
	}
}

// LoadConfig loads configuration from file and environment.
// An explicit file path wins over the default search locations.
func LoadConfig(file string) (*Config, error) {
	v := newViper()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigPath())
		v.AddConfigPath(".")
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with defaults and PORTAL_ env overrides
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	// Environment variable overrides, e.g. PORTAL_API_BASE_URL
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so env overrides and Unmarshal see it
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range cfg.Settings() {
		v.SetDefault(key, value)
	}
}

// Settings flattens the config into snake_case viper keys.
// Durations are rendered as strings ("500ms") so they round-trip through YAML.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"api.base_url":          c.API.BaseURL,
		"api.timeout":           c.API.Timeout.String(),
		"api.max_retries":       c.API.MaxRetries,
		"api.retry_delay":       c.API.RetryDelay.String(),
		"pager.debounce":        c.Pager.Debounce.String(),
		"pager.reentry_delay":   c.Pager.ReentryDelay.String(),
		"pager.prefetch_rows":   c.Pager.PrefetchRows,
		"pager.notes_page_size": c.Pager.NotesPageSize,
		"search.limit":          c.Search.Limit,
		"studio.use_llm_judge":  c.Studio.UseLLMJudge,
		"studio.history_limit":  c.Studio.HistoryLimit,
		"ui.theme":              c.UI.Theme,
		"ui.word_wrap":          c.UI.WordWrap,
		"history.path":          c.History.Path,
		"logging.file":          c.Logging.File,
		"logging.level":         c.Logging.Level,
		"metrics.addr":          c.Metrics.Addr,
	}
}

// SaveConfig writes the configuration to dir/config.yaml.
// An empty dir means the default config directory.
func SaveConfig(cfg *Config, dir string) (string, error) {
	if dir == "" {
		dir = DefaultConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	for key, value := range cfg.Settings() {
		v.Set(key, value)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

// Validate rejects settings the client cannot work with
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", c.API.MaxRetries)
	}
	if c.Pager.NotesPageSize <= 0 {
		return fmt.Errorf("pager.notes_page_size must be positive, got %d", c.Pager.NotesPageSize)
	}
	if c.Search.Limit < 1 || c.Search.Limit > 50 {
		return fmt.Errorf("search.limit must be between 1 and 50, got %d", c.Search.Limit)
	}
	return nil
}
