package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/handler"
	"github.com/noah-isme/admitcard-query/internal/service"
	"github.com/noah-isme/admitcard-query/internal/terminal"
	"github.com/noah-isme/admitcard-query/internal/ui"
	"github.com/noah-isme/admitcard-query/pkg/config"
	"github.com/noah-isme/admitcard-query/pkg/logger"
	"github.com/noah-isme/admitcard-query/pkg/middleware/requestid"
	"github.com/noah-isme/admitcard-query/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("query client failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logr.Warn("metrics_textfile_failed", zap.Error(err))
		}
	}()

	httpClient := &http.Client{
		Transport: requestid.Transport(logger.Transport(logr, http.DefaultTransport)),
	}

	store, err := storage.NewLocalStorage(cfg.Download.Dir)
	if err != nil {
		return err
	}
	downloader, err := service.NewDownloadService(httpClient, cfg.Query.BaseURL, store, logr, metrics)
	if err != nil {
		return err
	}
	querier := service.NewQueryService(httpClient, cfg.Query.Endpoint(), logr, metrics)

	loop := ui.NewLoop(ui.WithLogger(logr))
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer func() {
		stopLoop()
		<-loop.Stopped()
	}()
	go func() { _ = loop.Run(loopCtx) }()

	session := terminal.NewSession(terminal.NewSurveyDriver(), loop, downloader, logr)

	var bindErr error
	if err := loop.Do(ctx, func() {
		_, bindErr = handler.Bind(ctx, session.Page(), loop, querier,
			handler.WithLogger(logr),
			handler.WithMetrics(metrics),
			handler.WithRenderHook(session.RenderHook()),
		)
	}); err != nil {
		return err
	}
	if bindErr != nil {
		return bindErr
	}

	logr.Sugar().Infow("query client ready", "endpoint", cfg.Query.Endpoint(), "download_dir", cfg.Download.Dir, "env", cfg.Env)

	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	snap := metrics.Snapshot()
	logr.Info("session_summary",
		zap.Uint64("submissions", snap.Submissions),
		zap.Uint64("successes", snap.Successes),
		zap.Uint64("failures", snap.Failures),
		zap.Float64("avg_query_ms", snap.AverageQueryDurationMs),
		zap.Uint64("downloads", snap.Downloads),
	)
	return nil
}
