package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/app"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/handlers"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/mcp"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/mcp/tools"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/middleware"
)

// Version is set at build time via ldflags
var Version = "dev"

const retentionInterval = 24 * time.Hour

func main() {
	if err := config.LoadDotEnv(); err != nil {
		// Logger is not configured yet.
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg.ResolveDockerHosts()

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("llm_configured", cfg.LLM.Configured()),
		zap.Bool("executor_enabled", cfg.Datasource.Enabled()),
		zap.Bool("history_enabled", cfg.History.Enabled),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a, err := app.Build(ctx, cfg, app.Options{}, m, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.String("error", logging.SanitizeError(err)))
	}
	defer a.Close()

	mux := http.NewServeMux()

	// The health handler checks the executor only when one is connected.
	var tester datasource.ConnectionTester
	if a.Executor != nil {
		tester = a.Executor
	}
	handlers.NewHealthHandler(cfg, tester, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(a.Service, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(a.Catalog, logger).RegisterRoutes(mux)
	if a.History != nil {
		handlers.NewHistoryHandler(a.History, logger).RegisterRoutes(mux)
	}
	mux.Handle("GET /metrics", metrics.Handler(reg))

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(cfg.Version, m, logger)
		tools.RegisterWelfareTools(mcpServer.MCP(), &tools.WelfareToolDeps{
			Service: a.Service,
			Catalog: a.Catalog,
			Logger:  logger,
		})
		tools.RegisterHealthTool(mcpServer.MCP(), &tools.HealthToolDeps{
			Version:  cfg.Version,
			Model:    a.ModelName(),
			Executor: tester,
			Cache:    a.CacheEnabled(),
			History:  a.History != nil,
		})
		mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpServer.Handler()))
	}

	var handler http.Handler = mux
	handler = m.HTTPMiddleware(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.RequestID()(handler)

	if a.Retention != nil {
		a.Retention.RunScheduler(ctx, retentionInterval)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting welfare-nl2sql",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
