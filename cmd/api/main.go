package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/MrKriegler/go-policy-admin/docs"
	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/internal/events/kafka"
	transporthttp "github.com/MrKriegler/go-policy-admin/internal/http"
	"github.com/MrKriegler/go-policy-admin/internal/http/handlers"
	"github.com/MrKriegler/go-policy-admin/internal/middleware"
	"github.com/MrKriegler/go-policy-admin/internal/platform/config"
	"github.com/MrKriegler/go-policy-admin/internal/platform/logging"
	"github.com/MrKriegler/go-policy-admin/internal/platform/metrics"
	"github.com/MrKriegler/go-policy-admin/internal/store"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("policy admin api stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("starting policy admin api", "addr", addr, "env", cfg.Env, "db", cfg.DBType)

	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			log.Warn("failed to close store", "err", err)
		}
	}()
	// Memory needs nothing; Mongo indexes and Dynamo tables are idempotent.
	// Postgres migrations are left to the admin CLI.
	if backend.Kind != config.DBPostgres {
		if err := backend.Prepare(ctx); err != nil {
			return fmt.Errorf("prepare %s store: %w", backend.Kind, err)
		}
	}

	m := metrics.New()
	publishTimeout := time.Duration(cfg.KafkaPublishTimeoutMs) * time.Millisecond
	opts := []core.Option{
		core.WithLogger(log),
		core.WithObserver(m),
		core.WithActualRenewalPayment(cfg.RenewalReportActualPayment),
		core.WithPublishTimeout(publishTimeout),
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, publishTimeout)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, core.WithEvents(pub))
		log.Info("publishing lifecycle events", "topic", cfg.KafkaTopic)
	}

	policySvc := core.NewPolicyService(backend.Policies, opts...)
	quoteSvc := core.NewQuoteService(backend.Quotes)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Log: log,
		Mounts: []handlers.Mountable{
			handlers.NewPolicyHandler(policySvc, log),
			handlers.NewQuoteHandler(quoteSvc, policySvc, log),
		},
		Pinger:         backend.Pinger,
		Metrics:        m.Handler(),
		RateLimiter:    limiter,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second,
		PingTimeout:    2 * time.Second,
	})
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, authentication disabled")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("server listening", "addr", addr)
		return transporthttp.Serve(gctx, srv, 10*time.Second)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
