package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/config"
	"github.com/gstbook-dev/gstbook/internal/currency"
	"github.com/gstbook-dev/gstbook/internal/gitops"
	"github.com/gstbook-dev/gstbook/internal/logger"
	"github.com/gstbook-dev/gstbook/internal/numbering"
	"github.com/gstbook-dev/gstbook/internal/records"
	"github.com/gstbook-dev/gstbook/internal/tax"
)

const ratesCacheKey = "gstbook:rates"

// app wires the configured services for one command invocation.
type app struct {
	root    string
	cfg     *config.Config
	log     zerolog.Logger
	books   *records.Service
	rdb     *redis.Client
	closers []func() error
}

// openApp loads <repoDir>/gstbook.yaml. When optional is set a missing
// config falls back to defaults so pure computations work outside a project.
func openApp(repoDir string, optional bool) (*app, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadRepo(root)
	if err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", config.FileName, err)
		}
		cfg = config.Default("", "")
		cfg.Numbering.Backend = config.BackendMemory
		cfg.ApplyEnv(os.LookupEnv)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	if err := logger.Setup(logCfg); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	return &app{
		root:  root,
		cfg:   cfg,
		log:   logger.WithComponent("cli"),
		books: records.NewService(root),
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug().Err(err).Msg("closing")
		}
	}
}

func (a *app) redis() *redis.Client {
	if a.rdb == nil && a.cfg.Numbering.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{Addr: a.cfg.Numbering.RedisAddr})
		a.closers = append(a.closers, a.rdb.Close)
	}
	return a.rdb
}

func (a *app) engine() *tax.Engine {
	return tax.NewEngine(a.cfg.Business.HomeState, decimal.NewFromFloat(a.cfg.Tax.GSTRate))
}

// converter chains the HTTP provider behind the in-process cache and, when
// redis is configured, the shared redis cache.
func (a *app) converter() *currency.Converter {
	rc := a.cfg.Rates
	var provider currency.Provider = currency.NewHTTPProvider(rc.ProviderURL, rc.Timeout)
	if rdb := a.redis(); rdb != nil {
		provider = currency.NewRedisCache(rdb, ratesCacheKey, rc.CacheTTL, provider, logger.WithComponent("rates"))
	}
	provider = currency.NewCachedProvider(provider, rc.CacheTTL)
	return currency.NewConverter(a.cfg.Business.HomeCurrency, provider, logger.WithComponent("currency"))
}

func (a *app) provisionalLog() *numbering.ProvisionalLog {
	return numbering.NewProvisionalLog(a.root)
}

func (a *app) allocator() (*numbering.Allocator, error) {
	var store numbering.Store
	switch strings.ToLower(a.cfg.Numbering.Backend) {
	case config.BackendRedis:
		store = numbering.NewRedisStore(a.redis(), a.cfg.Numbering.RedisKeyPrefix)
	case config.BackendMemory:
		store = numbering.NewMemoryStore()
	default:
		path := a.cfg.Numbering.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.root, path)
		}
		db, err := numbering.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("opening invoice counter: %w", err)
		}
		sqlStore, err := numbering.NewSQLStore(db)
		if err != nil {
			return nil, fmt.Errorf("opening invoice counter: %w", err)
		}
		a.closers = append(a.closers, sqlStore.Close)
		store = sqlStore
	}
	return numbering.NewAllocator(store, a.provisionalLog(), logger.WithComponent("numbering")), nil
}

// commit records paths in git when auto-commit is on and the project is a
// git repository. Failures are logged, the books are already written.
func (a *app) commit(message string, paths ...string) string {
	if !a.cfg.Git.AutoCommit {
		return ""
	}
	repo := gitops.Open(a.root, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail)
	if !repo.IsRepo() {
		return ""
	}
	hash, err := repo.Commit(message, paths...)
	if err != nil {
		a.log.Warn().Err(err).Str("message", message).Msg("auto-commit failed")
		return ""
	}
	return hash
}
