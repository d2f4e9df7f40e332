package main

import (
	"context"
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
	"posnotif/internal/outreach"
	"posnotif/internal/providers/whacenter"
	sqsqueue "posnotif/internal/queue/sqs"
	"posnotif/internal/settings"
	"posnotif/internal/store/pg"
	"posnotif/internal/topup"
)

func main() {
	cfg := config.LoadAPI()
	logging.Init("api", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.NewPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("api db connect failed", "err", err)
		os.Exit(1)
	}

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWS.Region, cfg.AWS.LocalstackEndpoint)
	if err != nil {
		slog.Error("api sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	store := pg.New(db)
	enqueuer := &notify.Enqueuer{
		Store:    store,
		Signaler: &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.AWS.SQSQueueURL, GroupBuckets: cfg.AWS.SQSGroupBuckets},
	}

	rdb := settings.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	resolver, cache := settings.Build(store, rdb, cfg.Redis.SettingsTTL)

	gateway := &whacenter.Client{
		HTTP:    &http.Client{Timeout: cfg.WhatsApp.HTTPTimeout},
		BaseURL: cfg.WhatsApp.BaseURL,
	}

	api := &httpserver.API{
		TopUps:   &topup.Service{Store: store, Notifier: enqueuer},
		Queue:    store,
		Settings: store,
		FollowUps: &outreach.Service{
			Stores:   store,
			Settings: resolver,
			Sender:   gateway,
			Enqueuer: enqueuer,
		},
	}
	if cache != nil {
		api.Cache = cache
	}

	s := httpserver.New(2*time.Second,
		httpserver.Check("postgres", db.Ping),
		httpserver.Check("sqs", awsutil.QueueReachable(sqsClient, cfg.AWS.SQSQueueURL)),
	)
	api.Register(s.Mux)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.Handler(),
	}
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: httpserver.MetricsHandler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api metrics server failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("api listening", "port", cfg.Port, "metrics_port", cfg.MetricsPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}

	db.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
}
