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
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"posnotif/internal/awsutil"
	"posnotif/internal/config"
	"posnotif/internal/httpserver"
	"posnotif/internal/logging"
	"posnotif/internal/observability"
	"posnotif/internal/providers/whacenter"
	sqsqueue "posnotif/internal/queue/sqs"
	"posnotif/internal/settings"
	"posnotif/internal/store/pg"
	"posnotif/internal/worker"
)

func main() {
	cfg := config.LoadDispatcher()
	logging.Init("dispatcher", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())

	db, err := pg.NewPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("dispatcher db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	store := pg.New(db)

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWS.Region, cfg.AWS.LocalstackEndpoint)
	if err != nil {
		slog.Error("dispatcher sqs client init failed", "err", err)
		os.Exit(1)
	}
	queueReady := awsutil.QueueReachable(sqsClient, cfg.AWS.SQSQueueURL)

	startupCtx, startupCancel := context.WithTimeout(ctx, 3*time.Second)
	defer startupCancel()
	if err := queueReady(startupCtx); err != nil {
		slog.Error("sqs not reachable", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	rdb := settings.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	resolver, _ := settings.Build(store, rdb, cfg.Redis.SettingsTTL)

	dispatcher := &worker.Dispatcher{
		Store:    store,
		Settings: resolver,
		Sender: &whacenter.Client{
			HTTP:    &http.Client{Timeout: cfg.WhatsApp.HTTPTimeout},
			BaseURL: cfg.WhatsApp.BaseURL,
		},
		Limiter: rate.NewLimiter(rate.Limit(cfg.SendRPSPerPod), cfg.SendBurst),
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "whacenter",
			MaxRequests: 3,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
		SendTimeout: cfg.WhatsApp.HTTPTimeout,
	}
	sweeper := &worker.Sweeper{
		Store:      store,
		Dispatcher: dispatcher,
		Interval:   cfg.SweepInterval,
		Grace:      cfg.SweepGrace,
		BatchSize:  cfg.SweepBatch,
		StaleAfter: cfg.SweepStaleAfter,
	}
	consumer := &sqsqueue.Consumer{
		SQS:               sqsClient,
		QueueURL:          cfg.AWS.SQSQueueURL,
		WaitTimeSeconds:   cfg.SQSWaitTime,
		MaxMessages:       cfg.SQSMaxMsgs,
		VisibilityTimeout: cfg.SQSVizTimeout,
	}

	// health server (liveness + readiness)
	health := httpserver.New(2*time.Second,
		httpserver.Check("postgres", db.Ping),
		httpserver.Check("sqs", queueReady),
	)
	healthSrv := &http.Server{Addr: ":" + cfg.Port, Handler: health.Handler()}
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: httpserver.MetricsHandler()}

	healthErrCh := make(chan error, 1)
	go func() {
		slog.Info("dispatcher health listening", "port", cfg.Port)
		healthErrCh <- healthSrv.ListenAndServe()
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("dispatcher metrics server failed", "err", err)
		}
	}()

	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("sweeper stopped", "err", err)
		}
	}()

	pollErrCh := make(chan error, 1)
	go func() {
		slog.Info("dispatcher starting poll", "queue_url", cfg.AWS.SQSQueueURL, "workers", cfg.WorkerConcurrency)
		pollErrCh <- consumer.PollConcurrent(ctx, cfg.WorkerConcurrency, func(ctx context.Context, sig sqsqueue.EntrySignal) error {
			start := time.Now()
			err := dispatcher.Dispatch(ctx, sig.EntryID)
			if err != nil {
				slog.Info("dispatch finish", "entry_id", sig.EntryID, "status", "error", "duration", time.Since(start), "err", err)
				return err
			}
			slog.Info("dispatch finish", "entry_id", sig.EntryID, "status", "ok", "duration", time.Since(start))
			return nil
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-pollErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("dispatcher poll failed", "err", err)
			exitCode = 1
		}
	case err := <-healthErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("dispatcher health server failed", "err", err)
			exitCode = 1
		}
	case sig := <-sigCh:
		slog.Info("dispatcher shutdown", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	select {
	case <-pollErrCh:
	case <-time.After(10 * time.Second):
		slog.Info("dispatcher shutdown timeout waiting for poll loop")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if exitCode != 0 {
		db.Close()
		os.Exit(exitCode)
	}
}
