package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// FileName is the project config file at the repo root.
const FileName = "gstbook.yaml"

// Counter backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Environment overrides.
const (
	EnvRedisAddr      = "GSTBOOK_REDIS_ADDR"
	EnvRatesURL       = "GSTBOOK_RATES_URL"
	EnvCounterBackend = "GSTBOOK_COUNTER_BACKEND"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// Config represents the top-level gstbook.yaml configuration.
type Config struct {
	Business  BusinessConfig  `yaml:"business"`
	Tax       TaxConfig       `yaml:"tax"`
	Numbering NumberingConfig `yaml:"numbering"`
	Rates     RatesConfig     `yaml:"rates"`
	Git       GitConfig       `yaml:"git"`
	Log       LogConfig       `yaml:"log"`
}

// BusinessConfig identifies the seller. The home country is always
// model.HomeCountry.
type BusinessConfig struct {
	Name         string `yaml:"name"`
	GSTIN        string `yaml:"gstin"`
	HomeState    string `yaml:"home_state"`
	HomeCurrency string `yaml:"home_currency"`
}

// TaxConfig holds the combined GST rate in percent.
type TaxConfig struct {
	GSTRate float64 `yaml:"gst_rate"`
}

// NumberingConfig selects where the invoice counter lives.
type NumberingConfig struct {
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlite_path"` // relative to the repo root
	RedisAddr      string `yaml:"redis_addr,omitempty"`
	RedisKeyPrefix string `yaml:"redis_key_prefix,omitempty"`
}

// RatesConfig controls the exchange rate provider.
type RatesConfig struct {
	ProviderURL string        `yaml:"provider_url"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a gstbook.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, gstin string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:         businessName,
			GSTIN:        gstin,
			HomeState:    "Gujarat",
			HomeCurrency: "INR",
		},
		Tax: TaxConfig{
			GSTRate: 18,
		},
		Numbering: NumberingConfig{
			Backend:    BackendSQLite,
			SQLitePath: "gstbook.db",
		},
		Rates: RatesConfig{
			ProviderURL: "https://open.er-api.com/v6/latest/INR",
			Timeout:     10 * time.Second,
			CacheTTL:    time.Hour,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "gstbook",
			AuthorEmail: "books@gstbook.local",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadRepo loads <repoRoot>/gstbook.yaml and applies overrides from
// <repoRoot>/.env and then the process environment.
func LoadRepo(repoRoot string) (*Config, error) {
	cfg, err := Load(filepath.Join(repoRoot, FileName))
	if err != nil {
		return nil, err
	}

	dotenv, err := godotenv.Read(filepath.Join(repoRoot, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg.ApplyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from lookup. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvRedisAddr, &c.Numbering.RedisAddr)
	set(EnvRatesURL, &c.Rates.ProviderURL)
	set(EnvCounterBackend, &c.Numbering.Backend)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := model.ValidateGSTIN(c.Business.GSTIN); err != nil {
		return fmt.Errorf("business.gstin: %w", err)
	}
	if c.Tax.GSTRate <= 0 || c.Tax.GSTRate >= 100 {
		return fmt.Errorf("tax.gst_rate %v must be between 0 and 100", c.Tax.GSTRate)
	}
	switch strings.ToLower(c.Numbering.Backend) {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Numbering.RedisAddr == "" {
			return fmt.Errorf("numbering.backend redis needs numbering.redis_addr or %s", EnvRedisAddr)
		}
	default:
		return fmt.Errorf("numbering.backend %q must be sqlite, redis or memory", c.Numbering.Backend)
	}
	return nil
}
