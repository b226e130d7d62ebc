package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/autoflexeasy/autoflex-backend/api/routes"
	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/internal/admin"
	"github.com/autoflexeasy/autoflex-backend/internal/authactions"
	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/internal/debuglog"
	"github.com/autoflexeasy/autoflex-backend/internal/marketing"
	"github.com/autoflexeasy/autoflex-backend/internal/mirror"
	"github.com/autoflexeasy/autoflex-backend/internal/payments"
	"github.com/autoflexeasy/autoflex-backend/internal/posts"
	"github.com/autoflexeasy/autoflex-backend/internal/robot"
	"github.com/autoflexeasy/autoflex-backend/internal/users"
	stripewebhook "github.com/autoflexeasy/autoflex-backend/internal/webhooks/stripe"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/db"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/mailer"
	"github.com/autoflexeasy/autoflex-backend/pkg/metrics"
	"github.com/autoflexeasy/autoflex-backend/pkg/migrate"
	"github.com/autoflexeasy/autoflex-backend/pkg/redis"
	"github.com/autoflexeasy/autoflex-backend/pkg/stripe"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

const webhookIdempotencyTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	accessMetrics := metrics.NewAccessMetrics(registry)
	sourceMetrics := metrics.NewSourceMetrics(registry)

	supabaseClient, err := supabase.New(cfg.Supabase)
	requireResource(ctx, logg, "supabase client", err)

	verifier, err := auth.NewVerifier(ctx, cfg.Supabase)
	requireResource(ctx, logg, "token verifier", err)

	userRepo := users.NewRepository(dbClient.DB())
	resolver, err := access.NewResolver(access.ResolverParams{
		Roles:         userRepo,
		Areas:         access.AreasFromConfig(cfg.Access, cfg.App),
		AdminHome:     cfg.Access.AdminHomePath,
		UserHome:      cfg.Access.UserHomePath,
		LookupTimeout: cfg.Access.RoleLookupTimeout,
		Logger:        logg,
		Metrics:       accessMetrics,
	})
	requireResource(ctx, logg, "access resolver", err)

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:     billing.NewRepository(dbClient.DB()),
		Order:    cfg.Billing.Sort,
		Limit:    cfg.Billing.TableLimit,
		Currency: cfg.Billing.Currency,
		Logger:   logg,
		Metrics:  sourceMetrics,
	})
	requireResource(ctx, logg, "billing service", err)

	adminService, err := admin.NewService(admin.ServiceParams{
		Directory: supabaseClient,
		Users:     userRepo,
		Billing:   billingService,
		Logger:    logg,
		Metrics:   sourceMetrics,
	})
	requireResource(ctx, logg, "admin service", err)

	postmark, err := mailer.NewPostmark(cfg.Postmark, cfg.Site.Name)
	requireResource(ctx, logg, "postmark mailer", err)
	var sender mailer.Sender
	if postmark != nil {
		sender = postmark
	}
	authActions, err := authactions.NewService(authactions.ServiceParams{
		Links:           supabaseClient,
		Mailer:          sender,
		DefaultRedirect: cfg.Site.CallbackURL(),
		Logger:          logg,
	})
	requireResource(ctx, logg, "auth actions service", err)

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe client", err)
	catalog := stripe.NewCatalog(stripeClient)

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Catalog:  catalog,
		Currency: cfg.Billing.Currency,
		Logger:   logg,
		Metrics:  sourceMetrics,
	})
	requireResource(ctx, logg, "payments service", err)

	postsService, err := posts.NewService(posts.ServiceParams{Repo: posts.NewRepository(dbClient.DB())})
	requireResource(ctx, logg, "posts service", err)

	syncer, err := mirror.NewSyncer(mirror.SyncerParams{
		Source: catalog,
		Store:  billing.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	requireResource(ctx, logg, "mirror syncer", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Mirror:  syncer,
		Fetcher: catalog,
		Logger:  logg,
	})
	requireResource(ctx, logg, "stripe webhook service", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
	requireResource(ctx, logg, "stripe webhook guard", err)

	sink, err := debugLogSink(cfg.DebugLog, redisClient)
	requireResource(ctx, logg, "debug log sink", err)

	router := routes.NewRouter(routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      registry,
		DB:            dbClient,
		Redis:         redisClient,
		Verifier:      verifier,
		Sessions:      supabaseClient,
		Resolver:      resolver,
		Content:       marketing.NewContent(cfg.Site),
		Robot:         robot.NewSimulator(),
		Posts:         postsService,
		Admin:         adminService,
		AuthActions:   authActions,
		Payments:      paymentsService,
		DebugLog:      sink,
		Stripe:        stripeClient,
		StripeWebhook: webhookService,
		WebhookGuard:  webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logg.Info(logg.WithField(ctx, "port", port), "starting api server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func debugLogSink(cfg config.DebugLogConfig, client *redis.Client) (debuglog.Sink, error) {
	if cfg.Backend == config.DebugLogBackendRedis {
		return debuglog.NewRedisSink(client, cfg.Capacity)
	}
	return debuglog.NewMemorySink(cfg.Capacity), nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+resource, err)
	os.Exit(1)
}
