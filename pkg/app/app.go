// Package app wires configuration into the translation pipeline. It is shared
// by the HTTP server and the welfarectl command.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource/mssql"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/database"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/dialect"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/llm"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/repositories"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/retry"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
)

// startupRetry bounds how long startup waits for a database that is still
// coming up.
var startupRetry = &retry.Config{
	MaxRetries:   5,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
	JitterFactor: 0.1,
}

// App holds the wired pipeline and the connections it owns. Optional
// collaborators are nil when not configured.
type App struct {
	Catalog    *catalog.Catalog
	Normalizer *dialect.Normalizer
	LLM        llm.LLMClient
	Translator services.Translator
	Service    services.NL2SQLService
	Executor   *mssql.QueryExecutor
	History    services.QueryHistoryService
	Retention  services.RetentionService

	historyDB *database.DB
	redis     *redis.Client
	logger    *zap.Logger
}

// Options select which optional collaborators Build connects.
type Options struct {
	// SkipHistory leaves the history store unconnected even when enabled in
	// config, for one-shot commands.
	SkipHistory bool
	// SkipExecutor leaves the SQL Server executor unconnected.
	SkipExecutor bool
}

// Build connects every configured collaborator and assembles the pipeline.
// A missing model is not an error: translation then uses the pattern
// fallback only. Connection failures of configured databases are errors.
func Build(ctx context.Context, cfg *config.Config, opts Options, m *metrics.Metrics, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	cat, err := catalog.Welfare()
	if err != nil {
		return nil, fmt.Errorf("load schema catalog: %w", err)
	}
	a.Catalog = cat

	a.Normalizer, err = dialect.New(cat)
	if err != nil {
		return nil, fmt.Errorf("build normalizer: %w", err)
	}

	a.LLM, err = llm.New(LLMConfig(&cfg.LLM), logger)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("Language model not configured, using pattern fallback only")
		a.LLM = nil
	case err != nil:
		return nil, fmt.Errorf("create llm client: %w", err)
	default:
		logger.Info("Language model configured",
			zap.String("provider", a.LLM.GetProvider()),
			zap.String("model", a.LLM.GetModel()))
	}

	var cache services.TranslationCache
	if cfg.Cache.Host != "" {
		a.redis, err = database.NewRedisClient(ctx, &cfg.Cache)
		if err != nil {
			// The cache only saves model calls; run without it.
			logger.Warn("Translation cache unavailable", zap.String("error", logging.SanitizeError(err)))
		} else {
			cache = services.NewRedisTranslationCache(a.redis, cfg.Cache.TTL, logger)
		}
	}

	a.Translator = services.NewTranslator(services.TranslatorDeps{
		Catalog:    cat,
		Normalizer: a.Normalizer,
		LLM:        a.LLM,
		Breaker: llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
			Threshold:  cfg.LLM.BreakerThreshold,
			ResetAfter: cfg.LLM.BreakerReset,
		}),
		Preprocessor: services.NewQuestionPreprocessor(nil),
		Cache:        cache,
		Metrics:      m,
	}, services.TranslatorConfig{
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
	}, logger)

	if cfg.Datasource.Enabled() && !opts.SkipExecutor {
		a.Executor, err = retry.DoWithResult(ctx, startupRetry, func() (*mssql.QueryExecutor, error) {
			return mssql.NewQueryExecutor(ctx, MSSQLConfig(&cfg.Datasource))
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to sql server: %w", err)
		}
		logger.Info("Query executor connected",
			zap.String("host", cfg.Datasource.Host),
			zap.String("database", cfg.Datasource.Database))
	}

	if cfg.History.Enabled && !opts.SkipHistory {
		if err := a.connectHistory(ctx, &cfg.History); err != nil {
			a.Close()
			return nil, err
		}
	}

	// Interface fields must stay nil, not typed nil, when a collaborator is
	// absent.
	var executor datasource.QueryExecutor
	if a.Executor != nil {
		executor = a.Executor
	}
	a.Service = services.NewNL2SQLService(a.Translator, a.Normalizer, executor, a.History,
		services.NL2SQLConfig{MaxRows: cfg.Datasource.MaxRows}, m, logger)

	return a, nil
}

func (a *App) connectHistory(ctx context.Context, cfg *config.HistoryConfig) error {
	url := cfg.URL()

	err := retry.Do(ctx, startupRetry, func() error {
		return database.MigrateURL(url, cfg.MigrationsPath, a.logger)
	})
	if err != nil {
		return fmt.Errorf("migrate history database: %w", err)
	}

	a.historyDB, err = database.NewConnection(ctx, &database.Config{
		URL:              url,
		MaxConnections:   cfg.MaxConnections,
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to history database: %w", err)
	}

	a.History = services.NewQueryHistoryService(repositories.NewQueryHistoryRepository(a.historyDB), a.logger)
	a.Retention = services.NewRetentionService(a.History, cfg.RetentionDays, a.logger)
	a.logger.Info("History store connected",
		zap.String("url", logging.SanitizeConnectionString(url)),
		zap.Int("retention_days", cfg.RetentionDays))
	return nil
}

// ModelName returns "provider/model", or "" when only the pattern fallback
// translates.
func (a *App) ModelName() string {
	if a.LLM == nil {
		return ""
	}
	return a.LLM.GetProvider() + "/" + a.LLM.GetModel()
}

// CacheEnabled reports whether translations are cached in Redis.
func (a *App) CacheEnabled() bool {
	return a.redis != nil
}

// Close releases every connection the app owns.
func (a *App) Close() {
	if a.Executor != nil {
		if err := a.Executor.Close(); err != nil {
			a.logger.Warn("Failed to close query executor", zap.Error(err))
		}
	}
	if a.historyDB != nil {
		a.historyDB.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}

// LLMConfig maps the model settings onto the client configuration.
func LLMConfig(c *config.LLMConfig) *llm.Config {
	return &llm.Config{
		Provider:   c.Provider,
		Endpoint:   c.Endpoint,
		Model:      c.Model,
		APIKey:     c.APIKey,
		APIVersion: c.APIVersion,
		MaxTokens:  c.MaxTokens,
	}
}

// MSSQLConfig maps the datasource settings onto the adapter configuration.
func MSSQLConfig(c *config.DatasourceConfig) *mssql.Config {
	return &mssql.Config{
		Host:                   c.Host,
		Port:                   c.Port,
		Database:               c.Database,
		AuthMethod:             c.AuthMethod,
		Username:               c.Username,
		Password:               c.Password,
		TenantID:               c.TenantID,
		ClientID:               c.ClientID,
		ClientSecret:           c.ClientSecret,
		Encrypt:                c.Encrypt,
		TrustServerCertificate: c.TrustServerCertificate,
		ConnectionTimeout:      c.ConnectionTimeout,
		MaxOpenConns:           c.MaxOpenConns,
	}
}
