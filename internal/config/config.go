// Package config loads settings for the catalog server and the seriesctl
// client. Defaults come first, then an optional YAML file, then environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Client  ClientConfig  `koanf:"client"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

type ClientConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	SearchLimit int           `koanf:"search_limit"`
	RecoLimit   int           `koanf:"reco_limit"`
	// LikedThreshold is the lowest personal score that counts as "liked"
	// when building profile recommendations.
	LikedThreshold int `koanf:"liked_threshold"`
}

type ServerConfig struct {
	Port           string        `koanf:"port"`
	DBPath         string        `koanf:"db_path"`
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	EngineURL      string        `koanf:"engine_url"`
	EngineTimeout  time.Duration `koanf:"engine_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	CatalogSeed    string        `koanf:"catalog_seed"`
	LoginRateLimit int           `koanf:"login_rate_limit"`
	SlugCacheTTL   time.Duration `koanf:"slug_cache_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:        "http://localhost:5001/api",
			Timeout:        30 * time.Second,
			SearchLimit:    20,
			RecoLimit:      5,
			LikedThreshold: 4,
		},
		Server: ServerConfig{
			Port:           "5001",
			DBPath:         "data/series.db",
			TokenTTL:       24 * time.Hour,
			EngineTimeout:  10 * time.Second,
			CORSOrigins:    []string{"*"},
			LoginRateLimit: 20,
			SlugCacheTTL:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if raw, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("failed to set cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"api_base_url":     "client.base_url",
	"api_timeout":      "client.timeout",
	"search_limit":     "client.search_limit",
	"reco_limit":       "client.reco_limit",
	"liked_threshold":  "client.liked_threshold",
	"port":             "server.port",
	"db_path":          "server.db_path",
	"jwt_secret":       "server.jwt_secret",
	"token_ttl":        "server.token_ttl",
	"engine_url":       "server.engine_url",
	"engine_timeout":   "server.engine_timeout",
	"cors_origins":     "server.cors_origins",
	"catalog_seed":     "server.catalog_seed",
	"login_rate_limit": "server.login_rate_limit",
	"slug_cache_ttl":   "server.slug_cache_ttl",
	"log_level":        "logging.level",
	"log_format":       "logging.format",
}

// envKey maps a known environment variable onto its config path. Unknown
// variables are skipped.
func envKey(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the values both binaries rely on.
func (c *Config) Validate() error {
	var errs []error
	if c.Client.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url is required"))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if c.Client.SearchLimit <= 0 || c.Client.RecoLimit <= 0 {
		errs = append(errs, errors.New("client limits must be positive"))
	}
	if c.Client.LikedThreshold < 1 || c.Client.LikedThreshold > 5 {
		errs = append(errs, fmt.Errorf("client.liked_threshold must be between 1 and 5, got %d", c.Client.LikedThreshold))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.LoginRateLimit < 0 {
		errs = append(errs, errors.New("server.login_rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// RequireServer checks the settings only the server needs.
func (c *Config) RequireServer() error {
	if c.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}
