package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, "sqlite", cfg.Archive.Backend)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 400*time.Millisecond, cfg.Engine.FocusDelay)
	assert.Equal(t, time.Second, cfg.Engine.TimerTick)
	assert.Zero(t, cfg.Session.TTL, "sessions live until ended or abandoned")
	assert.Equal(t, ".ironlog/ironlog.db", cfg.SQLitePath())
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
session:
  backend: redis
  ttl: 2h
redis:
  addr: cache:6379
http:
  port: 9000
engine:
  focus_delay: 1s
`), 0o600))

	t.Setenv("IRONLOG_REDIS_PREFIX", "gym:")
	t.Setenv("IRONLOG_HTTP_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("user", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--user", "alice"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "unset flags do not override the file")
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "gym:", cfg.Redis.Prefix)
	assert.Equal(t, 9100, cfg.HTTP.Port, "environment beats the file")
	assert.Equal(t, time.Second, cfg.Engine.FocusDelay)
	assert.Equal(t, "alice", cfg.User)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("", nil)
	require.NoError(t, err)

	tests := map[string]func(c *Config){
		"unknown session backend": func(c *Config) { c.Session.Backend = "tape" },
		"unknown archive backend": func(c *Config) { c.Archive.Backend = "csv" },
		"unknown transport":       func(c *Config) { c.MCP.Transport = "ws" },
		"firestore without project": func(c *Config) {
			c.Session.Backend = "firestore"
		},
		"sql sessions on memory archive": func(c *Config) {
			c.Session.Backend = "sql"
			c.Archive.Backend = "memory"
		},
		"postgres without dsn": func(c *Config) { c.Archive.Backend = "postgres" },
		"port out of range":    func(c *Config) { c.HTTP.Port = 70000 },
		"zero tick":            func(c *Config) { c.Engine.TimerTick = 0 },
		"negative ttl":         func(c *Config) { c.Session.TTL = -time.Minute },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := *base
			mutate(&c)
			err := c.Validate()
			assert.True(t, errors.Is(err, ErrInvalidSetting), "got %v", err)
		})
	}

	assert.NoError(t, base.Validate())
}
