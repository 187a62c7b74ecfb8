package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override, e.g. CLMUSIC_API_BASE_URL.
const EnvPrefix = "CLMUSIC_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api" envPrefix:"API_"`
	Player   PlayerConfig   `toml:"player" envPrefix:"PLAYER_"`
	Search   SearchConfig   `toml:"search" envPrefix:"SEARCH_"`
	Cache    CacheConfig    `toml:"cache" envPrefix:"CACHE_"`
	Download DownloadConfig `toml:"download" envPrefix:"DOWNLOAD_"`
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// APIConfig contains upstream aggregator settings.
type APIConfig struct {
	BaseURL   string        `toml:"base_url" env:"BASE_URL"`
	Timeout   time.Duration `toml:"timeout" env:"TIMEOUT"`
	UserAgent string        `toml:"user_agent" env:"USER_AGENT"`
}

// PlayerConfig contains playback and lyric sync settings.
type PlayerConfig struct {
	Source   string        `toml:"source" env:"SOURCE"`
	Quality  string        `toml:"quality" env:"QUALITY"`
	Throttle time.Duration `toml:"throttle" env:"THROTTLE"`
	Tick     time.Duration `toml:"tick" env:"TICK"`
}

// SearchConfig contains search defaults and cover fan-out limits.
type SearchConfig struct {
	Count     int     `toml:"count" env:"COUNT"`
	Pages     int     `toml:"pages" env:"PAGES"`
	Workers   int     `toml:"workers" env:"WORKERS"`
	RateLimit float64 `toml:"rate_limit" env:"RATE_LIMIT"`
}

// CacheConfig contains cover cache settings.
type CacheConfig struct {
	Driver      string `toml:"driver" env:"DRIVER"`
	Path        string `toml:"path" env:"PATH"`
	CoverSize   int    `toml:"cover_size" env:"COVER_SIZE"`
	Placeholder string `toml:"placeholder" env:"PLACEHOLDER"`
}

// DownloadConfig contains settings for saved files.
type DownloadConfig struct {
	Dir string `toml:"dir" env:"DIR"`
}

// ServerConfig contains reverse proxy settings.
type ServerConfig struct {
	Host   string `toml:"host" env:"HOST"`
	Port   int    `toml:"port" env:"PORT"`
	Target string `toml:"target" env:"TARGET"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// Addr returns the host:port the proxy listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values from CLMUSIC_* environment variables.
//
// A .env file in the working directory, when present, is loaded first and never overrides variables already set.
func ApplyEnv(config *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: .env: %v", ErrInvalidConfig, err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config.Validate()
}

// Validate checks that required values are present and in range.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Player.Throttle < 0 {
		return fmt.Errorf("%w: player.throttle must not be negative", ErrInvalidConfig)
	}
	switch c.Cache.Driver {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: cache.driver must be memory or sqlite, got %q", ErrInvalidConfig, c.Cache.Driver)
	}
	if c.Cache.Driver == "sqlite" && !IsMemoryDSN(c.Cache.Path) {
		return fmt.Errorf("%w: cache.path must be an in-memory database, got %q", ErrInvalidConfig, c.Cache.Path)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
