package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/brokerflow/internal/adapters/genai"
	"github.com/okian/brokerflow/internal/adapters/http/api"
	"github.com/okian/brokerflow/internal/adapters/http/site"
	"github.com/okian/brokerflow/internal/adapters/http/swagger"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	app "github.com/okian/brokerflow/internal/app"
	"github.com/okian/brokerflow/internal/config"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "brokerflow exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run opens persistence, starts the service and serves HTTP until ctx ends.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	kv, err := kvstore.Open(ctx, cfg.KV())
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn(ctx, "closing kv store failed", logger.Error(err))
		}
	}()
	log.Info(ctx, "kv store ready", logger.String("backend", kv.Name()))

	svc := newService(cfg, kv, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

func newService(cfg *config.Config, kv kvstore.Store, log logger.Logger) *app.Service {
	gen := genai.NewClient(
		genai.WithBaseURL(cfg.GeminiBaseURL),
		genai.WithModel(cfg.GeminiModel),
		genai.WithTimeout(cfg.GeminiTimeout()),
		genai.WithMaxRetries(cfg.GeminiMaxRetries),
		genai.WithLogger(log.Named("genai")),
	)
	return app.New(
		app.WithKV(kv),
		app.WithGenerator(gen),
		app.WithDefaultCredential(cfg.GeminiAPIKey),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.BriefQueueSize),
		app.WithLogger(log.Named("service")),
	)
}

func newHandler(cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	server := api.NewServer(svc,
		api.WithAllowedOrigins(cfg.AllowedOrigins()...),
		api.WithLogger(log.Named("http")),
	)
	return server.Router(swagger.Register, site.Register)
}

// startServiceMetricsUpdater periodically mirrors service stats into gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateBriefQueueLength(queueLen)
	}
	if policies, ok := stats["policies"].(int); ok {
		metrics.UpdatePolicyCount(policies)
	}
	if coins, ok := stats["coins"].(int); ok {
		metrics.UpdateRewardBalance(coins)
	}
}
