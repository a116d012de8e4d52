package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"resizer/internal/core"
	"resizer/internal/core/engine"
)

// Init loads .env and the config file into viper. Missing files are not
// fatal; environment variables with the RESIZER prefix always apply.
func Init(cfgFile string) {
	// Load .env file (ignore if not exists)
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Environment variables
	viper.SetEnvPrefix("RESIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// CacheSettings bounds the option-encoding and header caches.
type CacheSettings struct {
	Enabled      bool `mapstructure:"enabled"`
	MaxEntries   int  `mapstructure:"max_entries"`
	TTLSeconds   int  `mapstructure:"ttl_seconds"`
	SweepSeconds int  `mapstructure:"sweep_seconds"`
}

// Core converts the settings into the core cache configuration.
func (s CacheSettings) Core() core.CacheConfig {
	return core.CacheConfig{
		Enabled:       s.Enabled,
		MaxEntries:    s.MaxEntries,
		TTL:           time.Duration(s.TTLSeconds) * time.Second,
		SweepInterval: time.Duration(s.SweepSeconds) * time.Second,
	}
}

// Config is the full typed application configuration.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Storage struct {
		// Backend selects the object store: "memory" or "file".
		Backend string `mapstructure:"backend"`
		// Dir is the file backend's root directory.
		Dir string `mapstructure:"dir"`
	} `mapstructure:"storage"`

	// FallbackOrigin is the origin URL the gateway and fallback
	// strategies construct URLs against. Empty disables them.
	FallbackOrigin string `mapstructure:"fallback_origin"`
	// Bucket names the bucket context passed along with requests.
	Bucket string `mapstructure:"bucket"`

	Cache       CacheSettings          `mapstructure:"cache"`
	CachePolicy core.CachePolicy       `mapstructure:"cache_policy"`
	Diagnostics core.DiagnosticsConfig `mapstructure:"diagnostics"`
	Routing     engine.Config          `mapstructure:"routing"`
}

// Load unmarshals the configuration viper currently holds.
func Load() (*Config, error) {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", "./objects")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 1024)
	viper.SetDefault("cache.ttl_seconds", 300)
	viper.SetDefault("cache.sweep_seconds", 60)
	viper.SetDefault("cache_policy.cacheable", true)
	viper.SetDefault("cache_policy.ttl.ok", 86400)
	viper.SetDefault("cache_policy.ttl.redirect", 300)
	viper.SetDefault("cache_policy.ttl.client_error", 60)
	viper.SetDefault("cache_policy.ttl.server_error", 0)
	viper.SetDefault("diagnostics.enabled", false)
	viper.SetDefault("diagnostics.allow_header", false)
}
