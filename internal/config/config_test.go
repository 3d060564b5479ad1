package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Shah Consulting", "24ABCDE1234F1Z5")
	cfg.Numbering.Backend = BackendRedis
	cfg.Numbering.RedisAddr = "localhost:6379"
	cfg.Rates.CacheTTL = 30 * time.Minute

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.InDelta(t, 18, got.Tax.GSTRate, 0.001)
	assert.Equal(t, cfg.Numbering, got.Numbering)
	assert.Equal(t, 30*time.Minute, got.Rates.CacheTTL)
	assert.Equal(t, 10*time.Second, got.Rates.Timeout)
	assert.Equal(t, cfg.Git, got.Git)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "Gujarat", cfg.Business.HomeState)
	assert.Equal(t, "INR", cfg.Business.HomeCurrency)
	assert.Equal(t, BackendSQLite, cfg.Numbering.Backend)
	assert.Equal(t, "gstbook.db", cfg.Numbering.SQLitePath)
	assert.True(t, cfg.Git.AutoCommit)
	assert.NoError(t, cfg.Validate())
}

func TestSaveOmitsHomeCountry(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("My Company", "")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "home_country")
	assert.Contains(t, string(data), "home_state: Gujarat")
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Tiny\n  home_state: Maharashtra\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Tiny", got.Business.Name)
	assert.Equal(t, "Maharashtra", got.Business.HomeState)
	assert.Equal(t, "INR", got.Business.HomeCurrency)
	assert.InDelta(t, 18, got.Tax.GSTRate, 0.001)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Test Biz", "")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "home_state: Gujarat")
	assert.Contains(t, contents, "backend: sqlite")
	assert.Contains(t, contents, "cache_ttl: 1h0m0s")
	assert.Contains(t, contents, "auto_commit: true")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("Biz", "")
	env := map[string]string{
		EnvCounterBackend: "redis",
		EnvRedisAddr:      " 10.0.0.5:6379 ",
		EnvLogLevel:       "debug",
		EnvRatesURL:       "",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, BackendRedis, cfg.Numbering.Backend)
	assert.Equal(t, "10.0.0.5:6379", cfg.Numbering.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, Default("", "").Rates.ProviderURL, cfg.Rates.ProviderURL)
}

func TestLoadRepo_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, FileName), Default("Biz", "")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("GSTBOOK_COUNTER_BACKEND=memory\nLOG_FORMAT=json\n"), 0o644))

	t.Setenv(EnvLogFormat, "console")

	cfg, err := LoadRepo(dir)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Numbering.Backend)
	assert.Equal(t, "console", cfg.Log.Format, "process env wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"gstin", func(c *Config) { c.Business.GSTIN = "24ABC" }, "business.gstin"},
		{"rate", func(c *Config) { c.Tax.GSTRate = 0 }, "gst_rate"},
		{"backend", func(c *Config) { c.Numbering.Backend = "etcd" }, "must be sqlite, redis or memory"},
		{"redis addr", func(c *Config) { c.Numbering.Backend = BackendRedis }, "redis_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("Biz", "")
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
