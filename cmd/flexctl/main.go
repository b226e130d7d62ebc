package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/internal/admin"
	"github.com/autoflexeasy/autoflex-backend/internal/authactions"
	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/internal/cli"
	"github.com/autoflexeasy/autoflex-backend/internal/mirror"
	"github.com/autoflexeasy/autoflex-backend/internal/users"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/db"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/mailer"
	"github.com/autoflexeasy/autoflex-backend/pkg/stripe"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

func main() {
	_ = godotenv.Load()

	root := cli.NewRootCommand(load, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(ctx context.Context) (*cli.Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "flexctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	cleanup := func() { _ = dbClient.Close() }

	deps, err := buildDeps(ctx, cfg, logg, dbClient)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return deps, cleanup, nil
}

func buildDeps(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cli.Deps, error) {
	userRepo := users.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:     billingRepo,
		Order:    cfg.Billing.Sort,
		Limit:    cfg.Billing.TableLimit,
		Currency: cfg.Billing.Currency,
		Logger:   logg,
	})
	resolver, resolverErr := access.NewResolver(access.ResolverParams{
		Roles:         userRepo,
		Areas:         access.AreasFromConfig(cfg.Access, cfg.App),
		AdminHome:     cfg.Access.AdminHomePath,
		UserHome:      cfg.Access.UserHomePath,
		LookupTimeout: cfg.Access.RoleLookupTimeout,
		Logger:        logg,
	})
	supabaseClient, supabaseErr := supabase.New(cfg.Supabase)
	stripeClient, stripeErr := stripe.NewClient(ctx, cfg.Stripe, logg)
	postmark, mailErr := mailer.NewPostmark(cfg.Postmark, cfg.Site.Name)
	if err := multierr.Combine(err, resolverErr, supabaseErr, stripeErr, mailErr); err != nil {
		return nil, err
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Directory: supabaseClient,
		Users:     userRepo,
		Billing:   billingService,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	var sender mailer.Sender
	if postmark != nil {
		sender = postmark
	}
	links, err := authactions.NewService(authactions.ServiceParams{
		Links:           supabaseClient,
		Mailer:          sender,
		DefaultRedirect: cfg.Site.CallbackURL(),
		Logger:          logg,
	})
	if err != nil {
		return nil, err
	}

	syncer, err := mirror.NewSyncer(mirror.SyncerParams{
		Source: stripe.NewCatalog(stripeClient),
		Store:  billingRepo,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}

	return &cli.Deps{
		Billing: adminService,
		Access:  resolver,
		Links:   links,
		Mirror:  syncer,
	}, nil
}
