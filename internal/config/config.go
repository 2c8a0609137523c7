package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Log       LogConfig
	Version   VersionConfig
	Operators OperatorsConfig
	UI        UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds the debug channel destination.
type LogConfig struct {
	Path string
}

// VersionConfig holds staleness monitor settings.
type VersionConfig struct {
	Endpoints []string
	Interval  time.Duration
	Timeout   time.Duration
}

// OperatorsConfig selects the operator data source. A non-empty BaseURL wins over Catalog.
type OperatorsConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
	Catalog  string
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DefaultLocale string `mapstructure:"default_locale"`
	Timezone      string
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "planwizard")
}

// Load reads configuration from file and env. Env var overrides use prefix PLANWIZARD_.
// An explicit path takes precedence over PLANWIZARD_CONFIG.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir(), "planwizard.db"))
	v.SetDefault("log.path", filepath.Join(dataDir(), "planwizard.log"))
	v.SetDefault("version.endpoints", []string{
		"http://localhost:8080/version.json",
		"http://localhost:8080/static/version.json",
		"http://localhost:8080/api/version",
	})
	v.SetDefault("version.interval", 60*time.Second)
	v.SetDefault("version.timeout", 10*time.Second)
	v.SetDefault("operators.base_url", "")
	v.SetDefault("operators.page_size", 10)
	v.SetDefault("operators.catalog", filepath.Join(dataDir(), "catalog.yaml"))
	v.SetDefault("operators.cache_ttl", 10*time.Minute)
	v.SetDefault("operators.timeout", 15*time.Second)
	v.SetDefault("ui.default_locale", "pt-BR")
	v.SetDefault("ui.timezone", "America/Sao_Paulo")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("PLANWIZARD_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "planwizard"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PLANWIZARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present; a missing file is not an error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Version.Interval <= 0 {
		return Config{}, fmt.Errorf("version.interval must be positive, got %s", c.Version.Interval)
	}
	if c.Operators.PageSize <= 0 {
		c.Operators.PageSize = 10
	}
	return c, nil
}

// DefaultPath is where Save writes when no explicit path is configured.
func DefaultPath() string {
	if p := os.Getenv("PLANWIZARD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "planwizard", "config.toml")
}

// Save writes the provided config to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("version.endpoints", cfg.Version.Endpoints)
	v.Set("version.interval", cfg.Version.Interval.String())
	v.Set("version.timeout", cfg.Version.Timeout.String())
	v.Set("operators.base_url", cfg.Operators.BaseURL)
	v.Set("operators.page_size", cfg.Operators.PageSize)
	v.Set("operators.catalog", cfg.Operators.Catalog)
	v.Set("operators.cache_ttl", cfg.Operators.CacheTTL.String())
	v.Set("operators.timeout", cfg.Operators.Timeout.String())
	v.Set("ui.default_locale", cfg.UI.DefaultLocale)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
