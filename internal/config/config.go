// Package config loads application settings from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Yelp     YelpConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// ImportConfig holds CSV ingestion settings.
type ImportConfig struct {
	DefaultCategory string `mapstructure:"default_category"`
	Timezone        string `mapstructure:"timezone"`
}

// YelpConfig holds merchant autocomplete settings.
type YelpConfig struct {
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// Load reads configuration from file and env. Env var overrides use prefix BUDGETEER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "budgeteer", "budgeteer.db"))
	v.SetDefault("database.migrations_path", "internal/database/migrations")
	v.SetDefault("import.default_category", "Uncategorized")
	v.SetDefault("import.timezone", "UTC")
	v.SetDefault("yelp.api_key_env", "YELP_API_KEY")
	v.SetDefault("yelp.api_key", "")
	v.SetDefault("yelp.base_url", "https://api.yelp.com/v3")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BUDGETEER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "budgeteer"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BUDGETEER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// ResolveYelpKey picks the API key from config, falling back to the
// configured environment variable.
func (c Config) ResolveYelpKey() string {
	if c.Yelp.APIKey != "" {
		return c.Yelp.APIKey
	}
	if c.Yelp.APIKeyEnv != "" {
		return os.Getenv(c.Yelp.APIKeyEnv)
	}
	return ""
}
