package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "RESEPHUB_CONFIG"

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: RESEPHUB_UPSTREAM_RECIPES_URL -> upstream.recipes_url.
const EnvPrefix = "RESEPHUB_"

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Visitor  VisitorConfig  `koanf:"visitor"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	PublicURL       string        `koanf:"public_url" validate:"omitempty,url"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// SyncAddr is the TCP event stream address; empty disables it.
	SyncAddr string `koanf:"sync_addr"`
}

type UpstreamConfig struct {
	CategoriesURL   string        `koanf:"categories_url" validate:"required,url"`
	RecipesURL      string        `koanf:"recipes_url" validate:"required,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	MediaHosts      []string      `koanf:"media_hosts"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type CacheConfig struct {
	Dir  string `koanf:"dir"`
	Name string `koanf:"name" validate:"required"`
	// AssetOrigin serves the static assets from a remote origin through
	// the offline cache; empty serves the embedded copies.
	AssetOrigin string `koanf:"asset_origin" validate:"omitempty,url"`
	// Assets is the manifest pre-warmed from AssetOrigin at startup.
	Assets []string `koanf:"assets"`
}

type VisitorConfig struct {
	Secret     string        `koanf:"secret" validate:"required,min=8"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// DefaultConfig returns the built-in defaults. They point at the public
// recipe endpoints and keep all state under ~/.resephub.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	dataDir := home + "/.resephub"

	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			SyncAddr:        ":7070",
		},
		Upstream: UpstreamConfig{
			CategoriesURL: "https://gampil.github.io/resep/kategori.json",
			RecipesURL:    "https://gampil.github.io/resep/data.json",
			Timeout:       15 * time.Second,
			MediaHosts:    []string{"gampil.github.io"},
		},
		Database: DatabaseConfig{Path: dataDir + "/data.db"},
		Cache: CacheConfig{
			Dir:    dataDir + "/cache",
			Name:   "recipes-final-v1",
			Assets: []string{"/styles.css", "/app_final.js", "/manifest.json"},
		},
		Visitor: VisitorConfig{
			// dev default; set RESEPHUB_VISITOR_SECRET in production
			Secret:     "dev-secret-change-me",
			CookieName: "resephub_visitor",
			TTL:        365 * 24 * time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load layers defaults, an optional YAML file and RESEPHUB_* environment
// variables, in that order, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	for _, path := range []string{"upstream.media_hosts", "cache.assets"} {
		if err := splitList(k, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sections lists the top-level config keys; the first underscore after a
// section name separates it from the field name.
var sections = []string{"server", "upstream", "database", "cache", "visitor", "log"}

// envKey maps RESEPHUB_UPSTREAM_RECIPES_URL to upstream.recipes_url.
// Variables that name no known section are dropped.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			return s + "." + strings.TrimPrefix(key, s+"_")
		}
	}
	return ""
}

// splitList turns a comma-separated env value into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
