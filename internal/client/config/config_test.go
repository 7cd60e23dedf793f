package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

// unsetenv clears key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:0", c.PreviewAddr)
	assert.Equal(t, store.BackendSQLite, c.Store.Backend)
	assert.Equal(t, 60*time.Second, c.RequestTimeout)
	assert.Equal(t, 4*time.Second, c.NotificationTTL)
	assert.Equal(t, LogBackendSlog, c.LogBackend)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, c *Config)
		wantErr bool
	}{
		{
			name: "generator and store",
			args: []string{"-g", "http://gen:9000", "-s", "memory", "-p", "127.0.0.1:7000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "http://gen:9000", c.GeneratorURL)
				assert.Equal(t, store.BackendMemory, c.Store.Backend)
				assert.Equal(t, "127.0.0.1:7000", c.PreviewAddr)
			},
		},
		{
			name: "double dash and equals",
			args: []string{"--id=http://id:1", "-u", "cookiecutter://reset#token=abc"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "http://id:1", c.IdentityURL)
				assert.Equal(t, "cookiecutter://reset#token=abc", c.DeepLink)
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "x.json", "-z", "-o", "/tmp/out"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "/tmp/out", c.DownloadDir)
			},
		},
		{
			name:    "flag without value",
			args:    []string{"-l"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			err := parseFlags(&c, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, &c)
		})
	}
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"generator_url":    "http://www.example:9000",
		"request_timeout":  "10s",
		"notification_ttl": 1500000000,
		"generate_rate":    0,
		"store": map[string]any{
			"backend":   "s3",
			"s3":        map[string]any{"bucket": "cookies", "endpoint": "http://minio:9000"},
			"redis_url": "",
		},
	})

	t.Run("loads from flags", func(t *testing.T) {
		var c Config
		c.LoadDefaults()
		require.NoError(t, parseJson(&c, []string{"-config", path}))

		assert.Equal(t, "http://www.example:9000", c.GeneratorURL)
		assert.Equal(t, 10*time.Second, c.RequestTimeout)
		assert.Equal(t, 1500*time.Millisecond, c.NotificationTTL)
		assert.Zero(t, c.GenerateRate)
		assert.Equal(t, store.BackendS3, c.Store.Backend)
		assert.Equal(t, "cookies", c.Store.S3.Bucket)
		assert.Equal(t, "cookiecutter.db", c.Store.DSN, "unset fields keep earlier values")
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		c := Config{GeneratorURL: "keep"}
		require.NoError(t, parseJson(&c, nil))
		assert.Equal(t, "keep", c.GeneratorURL)
	})

	t.Run("missing file", func(t *testing.T) {
		var c Config
		require.Error(t, parseJson(&c, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		var c Config
		require.Error(t, parseJson(&c, []string{"-c", bad}))
	})
}

func TestParseEnv(t *testing.T) {
	t.Run("process environment", func(t *testing.T) {
		t.Setenv(EnvGeneratorURL, "http://env-gen")
		t.Setenv(EnvRequestTimeout, "5s")
		t.Setenv(EnvGenerateRate, "2.5")
		t.Setenv(EnvStoreBackend, "redis")
		t.Setenv(EnvRedisURL, "redis://localhost:6379/1")

		var c Config
		c.LoadDefaults()
		require.NoError(t, parseEnv(&c, nil))

		assert.Equal(t, "http://env-gen", c.GeneratorURL)
		assert.Equal(t, 5*time.Second, c.RequestTimeout)
		assert.InDelta(t, 2.5, c.GenerateRate, 1e-9)
		assert.Equal(t, store.BackendRedis, c.Store.Backend)
		assert.Equal(t, "redis://localhost:6379/1", c.Store.RedisURL)
	})

	t.Run("dotenv file", func(t *testing.T) {
		unsetenv(t, EnvIdentityURL)
		unsetenv(t, EnvLogBackend)
		t.Setenv(EnvLogLevel, "warn")

		file := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(file, []byte(
			EnvIdentityURL+"=http://env-id\n"+
				EnvLogBackend+"=zap\n"+
				EnvLogLevel+"=debug\n"), 0o600))

		var c Config
		c.LoadDefaults()
		require.NoError(t, parseEnv(&c, []string{"-e", file}))

		assert.Equal(t, "http://env-id", c.IdentityURL)
		assert.Equal(t, LogBackendZap, c.LogBackend)
		assert.Equal(t, "warn", c.LogLevel, "process environment wins over the file")
	})

	t.Run("missing dotenv file", func(t *testing.T) {
		var c Config
		require.Error(t, parseEnv(&c, []string{"-env", filepath.Join(t.TempDir(), "none.env")}))
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv(EnvNotificationTTL, "soon")
		var c Config
		require.Error(t, parseEnv(&c, nil))
	})
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Setenv(EnvGeneratorURL, "http://env")
	t.Setenv(EnvIdentityURL, "http://env-id")
	path := writeTempJSON(t, map[string]any{"generator_url": "http://json"})

	cfg, err := LoadConfig([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://json", cfg.GeneratorURL)
	assert.Equal(t, "http://env-id", cfg.IdentityURL)

	cfg, err = LoadConfig([]string{"-c", path, "-g", "http://flag"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.GeneratorURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig([]string{"-g", ""})
	require.ErrorIs(t, err, ErrInvalid)

	t.Setenv(EnvLogBackend, "logrus")
	_, err = LoadConfig(nil)
	require.ErrorIs(t, err, ErrInvalid)
}
