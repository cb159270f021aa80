// Package config loads server settings from an optional YAML file and
// SURVEYGUY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soaringjerry/surveyguy/internal/utils"
)

const envPrefix = "SURVEYGUY"

type Config struct {
	Addr           string      `mapstructure:"addr"`
	StaticDir      string      `mapstructure:"static_dir"`
	DevFrontendURL string      `mapstructure:"dev_frontend_url"`
	Commit         string      `mapstructure:"commit"`
	BuildTime      string      `mapstructure:"build_time"`
	Store          Store       `mapstructure:"store"`
	Session        Session     `mapstructure:"session"`
	Submission     Submission  `mapstructure:"submission"`
	Redis          Redis       `mapstructure:"redis"`
	Fingerprint    Fingerprint `mapstructure:"fingerprint"`
	CORS           CORS        `mapstructure:"cors"`
	Log            Log         `mapstructure:"log"`
}

type Store struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	MaxConns      int32  `mapstructure:"max_conns"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	// SnapshotPath seeds the memory store and is the source for migrate.
	SnapshotPath string `mapstructure:"snapshot_path"`
}

type Session struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Submission struct {
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// Redis is optional; an empty Addr selects the in-process guard.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Fingerprint struct {
	Key string `mapstructure:"key"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

var defaults = map[string]any{
	"addr":                        ":8080",
	"static_dir":                  "",
	"dev_frontend_url":            "",
	"commit":                      "",
	"build_time":                  "",
	"store.driver":                "memory",
	"store.sqlite_path":           "data/surveyguy.db",
	"store.postgres_dsn":          "",
	"store.max_conns":             10,
	"store.migrations_dir":        "",
	"store.snapshot_path":         "",
	"session.secret":              "",
	"session.ttl":                 "2h",
	"submission.duplicate_window": "24h",
	"redis.addr":                  "",
	"redis.password":              "",
	"redis.db":                    0,
	"fingerprint.key":             "",
	"cors.allowed_origins":        []string{},
	"log.level":                   "info",
	"log.format":                  "json",
	"log.file":                    "",
	"log.max_size_mb":             100,
	"log.max_backups":             5,
	"log.max_age_days":            30,
}

// Load reads path (when non-empty, else SURVEYGUY_CONFIG) and layers the
// environment on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = utils.SafeEnv(envPrefix+"_CONFIG", "")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both YAML lists and a comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.Driver == "sqlite" && c.Store.SQLitePath == "" {
		errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("session.secret must be at least 16 characters"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Submission.DuplicateWindow <= 0 {
		errs = append(errs, errors.New("submission.duplicate_window must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
