package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazydb/internal/export"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// Config holds all application configuration
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	General  GeneralConfig `mapstructure:"general"`
	UI       UIConfig      `mapstructure:"ui"`
	History  HistoryConfig `mapstructure:"history"`
	Conns    []ConnEntry   `mapstructure:"conn"`

	// Connections is built from Conns by Load
	Connections []models.ConnectionDescriptor `mapstructure:"-"`
	// Path is the config file that was read, empty when only defaults apply
	Path string `mapstructure:"-"`
}

type GeneralConfig struct {
	PageSize            int    `mapstructure:"page_size"`
	MaxRetainedRows     int    `mapstructure:"max_retained_rows"`
	QueryTimeoutSeconds int    `mapstructure:"query_timeout_seconds"`
	CloseOnSwitch       bool   `mapstructure:"close_on_switch"`
	CopyFormat          string `mapstructure:"copy_format"`
}

type UIConfig struct {
	Theme            string `mapstructure:"theme"`
	LeftPanelPercent int    `mapstructure:"left_panel_percent"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// QueryTimeout returns the default per-statement timeout
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.General.QueryTimeoutSeconds) * time.Second
}

const (
	MinPanelPercent = 15
	MaxPanelPercent = 70
)

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		LogLevel: "info",
		General: GeneralConfig{
			PageSize:            200,
			MaxRetainedRows:     2000,
			QueryTimeoutSeconds: 5,
			CloseOnSwitch:       true,
			CopyFormat:          string(export.FormatTSV),
		},
		UI: UIConfig{
			Theme:            "default",
			LeftPanelPercent: 30,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// user config directory and the current directory are searched and a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(expandPath(path))
	} else {
		v.SetConfigName("config")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	defaults := GetDefaults()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("general.page_size", defaults.General.PageSize)
	v.SetDefault("general.max_retained_rows", defaults.General.MaxRetainedRows)
	v.SetDefault("general.query_timeout_seconds", defaults.General.QueryTimeoutSeconds)
	v.SetDefault("general.close_on_switch", defaults.General.CloseOnSwitch)
	v.SetDefault("general.copy_format", defaults.General.CopyFormat)
	v.SetDefault("ui.theme", defaults.UI.Theme)
	v.SetDefault("ui.left_panel_percent", defaults.UI.LeftPanelPercent)
	v.SetDefault("history.enabled", defaults.History.Enabled)
	v.SetDefault("history.path", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ParseError{Path: path, Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: v.ConfigFileUsed(), Err: fmt.Errorf("error unmarshaling config: %w", err)}
	}
	cfg.Path = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return nil, &ParseError{Path: cfg.Path, Err: err}
	}
	descriptors, err := buildDescriptors(cfg.Conns)
	if err != nil {
		return nil, &ParseError{Path: cfg.Path, Err: err}
	}
	cfg.Connections = descriptors

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.General.PageSize <= 0 {
		return fmt.Errorf("general.page_size must be positive, got %d", c.General.PageSize)
	}
	if c.General.MaxRetainedRows < c.General.PageSize {
		return fmt.Errorf("general.max_retained_rows (%d) must be at least general.page_size (%d)",
			c.General.MaxRetainedRows, c.General.PageSize)
	}
	if c.General.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("general.query_timeout_seconds must be positive, got %d", c.General.QueryTimeoutSeconds)
	}
	if _, err := export.ParseFormat(c.General.CopyFormat); err != nil {
		return fmt.Errorf("general.copy_format: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	c.UI.LeftPanelPercent = ClampPanelPercent(c.UI.LeftPanelPercent)
	c.History.Path = expandPath(c.History.Path)
	return nil
}

// ClampPanelPercent keeps the left panel width within its allowed range
func ClampPanelPercent(p int) int {
	if p < MinPanelPercent {
		return MinPanelPercent
	}
	if p > MaxPanelPercent {
		return MaxPanelPercent
	}
	return p
}

// HistoryPath returns the history database location
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Dir returns the user config directory path
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazydb"), nil
}
