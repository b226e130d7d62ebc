package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/internal/cron"
	"github.com/autoflexeasy/autoflex-backend/internal/mirror"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/db"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/metrics"
	"github.com/autoflexeasy/autoflex-backend/pkg/migrate"
	"github.com/autoflexeasy/autoflex-backend/pkg/redis"
	"github.com/autoflexeasy/autoflex-backend/pkg/stripe"
)

type flags struct {
	once bool
	job  string
}

func main() {
	var f flags
	flag.BoolVar(&f.once, "once", false, "run a single cycle and exit")
	flag.StringVar(&f.job, "job", "", "run only the named job once and exit")
	flag.Parse()

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, f)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "cron-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "interval": cfg.Cron.Interval.String()})

	service, cleanup, err := buildService(ctx, cfg, logg)
	defer cleanup()
	if err != nil {
		logg.Error(ctx, "cron.bootstrap_failed", err)
		return err
	}

	switch {
	case f.job != "":
		return service.RunJob(ctx, f.job)
	case f.once:
		return service.RunOnce(ctx)
	}

	metricsServer := serveMetrics(ctx, logg, cfg.Cron.MetricsPort)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "cron.worker.start")
	err = service.Run(ctx)
	logg.Info(ctx, "cron.worker.stop")
	return err
}

// buildService wires the worker's dependencies. cleanup is always safe to
// call, even after a failure.
func buildService(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*cron.Service, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logg.Error(ctx, "cron.shutdown.close_failed", err)
			}
		}
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("database: %w", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, cleanup, fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("redis: %w", err)
	}
	closers = append(closers, redisClient.Close)

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("stripe: %w", err)
	}

	syncer, err := mirror.NewSyncer(mirror.SyncerParams{
		Source: stripe.NewCatalog(stripeClient),
		Store:  billing.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return nil, cleanup, err
	}
	syncJob, err := cron.NewMirrorSyncJob(cron.MirrorSyncJobParams{Logger: logg, Syncer: syncer})
	if err != nil {
		return nil, cleanup, err
	}
	registry, err := cron.NewRegistry(syncJob)
	if err != nil {
		return nil, cleanup, err
	}

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, cleanup, err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	return service, cleanup, err
}

func serveMetrics(ctx context.Context, logg *logger.Logger, port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "cron.metrics.stopped", err)
		}
	}()
	return server
}
