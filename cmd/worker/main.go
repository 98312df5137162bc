package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/closeboard/internal/app"
	jobmetrics "github.com/odyssey-erp/closeboard/internal/jobs"
	"github.com/odyssey-erp/closeboard/internal/observability"
	"github.com/odyssey-erp/closeboard/jobs"
)

// rolloverSpec runs shortly after midnight UTC on the first day of each month.
const rolloverSpec = "5 0 1 * *"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()
	services, err := app.OpenServices(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("open storage", slog.Any("error", err), slog.String("backend", cfg.StoreBackend))
		os.Exit(1)
	}
	defer services.Close(logger)

	rollover := jobs.NewRolloverJob(services.Closing, logger, jobmetrics.NewMetrics(metrics.Registerer()))
	rolloverCron, err := jobs.RolloverCron(rolloverSpec)
	if err != nil {
		logger.Error("build rollover task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskClosingRollover, Handler: rollover.Handle},
		},
		Cron:            []jobs.CronRegistration{rolloverCron},
		ShutdownTimeout: 30 * time.Second,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer metricsServer.Close()
	}

	// Records for the current month exist before the first cron tick.
	if created, err := services.Closing.MaterializeAll(ctx); err != nil {
		logger.Warn("startup rollover", slog.Any("error", err))
	} else {
		logger.Info("startup rollover", slog.Int("created", created))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
