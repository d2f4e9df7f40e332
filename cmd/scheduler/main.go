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

	"github.com/prometheus/client_golang/prometheus"

	"posnotif/internal/awsutil"
	"posnotif/internal/config"
	"posnotif/internal/httpserver"
	"posnotif/internal/logging"
	"posnotif/internal/notify"
	"posnotif/internal/observability"
	sqsqueue "posnotif/internal/queue/sqs"
	"posnotif/internal/store/pg"
	"posnotif/internal/summary"
)

func main() {
	cfg := config.LoadScheduler()
	logging.Init("scheduler", cfg.LogFormat)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("scheduler timezone invalid", "err", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := pg.NewPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("scheduler db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	store := pg.New(db)

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWS.Region, cfg.AWS.LocalstackEndpoint)
	if err != nil {
		slog.Error("scheduler sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	job := &summary.Job{
		Store: store,
		Enqueuer: &notify.Enqueuer{
			Store:    store,
			Signaler: &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.AWS.SQSQueueURL, GroupBuckets: cfg.AWS.SQSGroupBuckets},
		},
		Location:    loc,
		Concurrency: cfg.Concurrency,
	}

	health := httpserver.New(2*time.Second, httpserver.Check("postgres", db.Ping))
	healthSrv := &http.Server{Addr: ":" + cfg.Port, Handler: health.Handler()}
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: httpserver.MetricsHandler()}
	for _, srv := range []*http.Server{healthSrv, metricsSrv} {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("scheduler http server failed", "err", err, "addr", srv.Addr)
			}
		}()
	}

	if err := job.Start(ctx, cfg.Schedule); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("scheduler stopped", "err", err)
	}
	slog.Info("scheduler shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
