// Package config loads ironlog settings from defaults, an optional YAML
// file, IRONLOG_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (IRONLOG_SESSION_BACKEND...).
const EnvPrefix = "IRONLOG"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "ironlog.yaml"

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Program   ProgramConfig   `mapstructure:"program"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Tailscale TailscaleConfig `mapstructure:"tailscale"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Engine    EngineConfig    `mapstructure:"engine"`
	User      string          `mapstructure:"user"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// SessionConfig selects where live workouts are snapshotted.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	FallbackKeys  []string      `mapstructure:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type FirestoreConfig struct {
	Project    string `mapstructure:"project"`
	Collection string `mapstructure:"collection"`
}

// ArchiveConfig selects where finished workouts, exercises and templates live.
type ArchiveConfig struct {
	Backend     string `mapstructure:"backend"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// ProgramConfig points at a read-only directory of exercise and template
// documents. When set it replaces the archive's catalog.
type ProgramConfig struct {
	Dir string `mapstructure:"dir"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Hostname string `mapstructure:"hostname"`
	StateDir string `mapstructure:"state_dir"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

type EngineConfig struct {
	FocusDelay time.Duration `mapstructure:"focus_delay"`
	TimerTick  time.Duration `mapstructure:"timer_tick"`
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("data.dir", ".ironlog")
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("session.fallback_keys", []string{})
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ironlog:")
	v.SetDefault("firestore.project", "")
	v.SetDefault("firestore.collection", "active_sessions")
	v.SetDefault("archive.backend", "sqlite")
	v.SetDefault("archive.sqlite_path", "")
	v.SetDefault("archive.postgres_dsn", "")
	v.SetDefault("program.dir", "")
	v.SetDefault("http.host", "")
	v.SetDefault("http.port", 8080)
	v.SetDefault("tailscale.enabled", false)
	v.SetDefault("tailscale.hostname", "ironlog")
	v.SetDefault("tailscale.state_dir", "")
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
	v.SetDefault("engine.focus_delay", 400*time.Millisecond)
	v.SetDefault("engine.timer_tick", time.Second)
	v.SetDefault("user", "")
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"user":      "user",
	"data-dir":  "data.dir",
	"port":      "http.port",
	"host":      "http.host",
	"transport": "mcp.transport",
	"mcp-port":  "mcp.port",
}

// Load reads the configuration. path may be empty, in which case
// ironlog.yaml is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalidSetting marks every validation failure.
var ErrInvalidSetting = errors.New("invalid configuration")

var (
	sessionBackends = []string{"memory", "file", "redis", "firestore", "sql"}
	archiveBackends = []string{"memory", "file", "sqlite", "postgres", "redis"}
	mcpTransports   = []string{"stdio", "sse"}
)

// Validate rejects unknown backends and settings a backend cannot start with.
func (c *Config) Validate() error {
	if !oneOf(c.Session.Backend, sessionBackends) {
		return errors.WithHint(
			errors.Wrapf(ErrInvalidSetting, "unknown session.backend %q", c.Session.Backend),
			"use one of "+strings.Join(sessionBackends, ", "))
	}
	if !oneOf(c.Archive.Backend, archiveBackends) {
		return errors.WithHint(
			errors.Wrapf(ErrInvalidSetting, "unknown archive.backend %q", c.Archive.Backend),
			"use one of "+strings.Join(archiveBackends, ", "))
	}
	if !oneOf(c.MCP.Transport, mcpTransports) {
		return errors.Wrapf(ErrInvalidSetting, "unknown mcp.transport %q", c.MCP.Transport)
	}
	if c.Session.Backend == "firestore" && c.Firestore.Project == "" {
		return errors.Wrap(ErrInvalidSetting, "firestore.project is required for the firestore session backend")
	}
	if c.Session.Backend == "sql" && c.Archive.Backend != "sqlite" && c.Archive.Backend != "postgres" {
		return errors.Wrap(ErrInvalidSetting, "the sql session backend needs a sqlite or postgres archive")
	}
	if c.Archive.Backend == "postgres" && c.Archive.PostgresDSN == "" {
		return errors.Wrap(ErrInvalidSetting, "archive.postgres_dsn is required for the postgres archive")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.Wrapf(ErrInvalidSetting, "http.port %d out of range", c.HTTP.Port)
	}
	if c.Session.TTL < 0 {
		return errors.Wrapf(ErrInvalidSetting, "session.ttl %s is negative", c.Session.TTL)
	}
	if c.Engine.FocusDelay < 0 || c.Engine.TimerTick <= 0 {
		return errors.Wrap(ErrInvalidSetting, "engine.focus_delay must be >= 0 and engine.timer_tick > 0")
	}
	return nil
}

// SQLitePath returns the archive database file, defaulting into the data dir.
func (c *Config) SQLitePath() string {
	if c.Archive.SQLitePath != "" {
		return c.Archive.SQLitePath
	}
	return filepath.Join(c.Data.Dir, "ironlog.db")
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
