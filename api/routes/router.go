package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autoflexeasy/autoflex-backend/api/controllers"
	webhookcontrollers "github.com/autoflexeasy/autoflex-backend/api/controllers/webhooks"
	"github.com/autoflexeasy/autoflex-backend/api/middleware"
	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/internal/admin"
	"github.com/autoflexeasy/autoflex-backend/internal/authactions"
	"github.com/autoflexeasy/autoflex-backend/internal/debuglog"
	"github.com/autoflexeasy/autoflex-backend/internal/marketing"
	"github.com/autoflexeasy/autoflex-backend/internal/payments"
	"github.com/autoflexeasy/autoflex-backend/internal/posts"
	"github.com/autoflexeasy/autoflex-backend/internal/robot"
	stripewebhook "github.com/autoflexeasy/autoflex-backend/internal/webhooks/stripe"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/redis"
	"github.com/autoflexeasy/autoflex-backend/pkg/stripe"
)

type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer

	DB    controllers.Pinger
	Redis *redis.Client

	Verifier middleware.TokenVerifier
	Sessions controllers.SessionProvider
	Resolver *access.Resolver

	Content     *marketing.Content
	Robot       *robot.Simulator
	Posts       *posts.Service
	Admin       *admin.Service
	AuthActions *authactions.Service
	Payments    *payments.Service
	DebugLog    debuglog.Sink

	Stripe        *stripe.Client
	StripeWebhook *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger
	areas := p.Resolver.Areas()
	cookies := controllers.CookieOptions{Secure: cfg.Access.CookieSecure}

	readiness := map[string]controllers.Pinger{"db": p.DB}
	rateStore, idemStore := rateLimitStores(p.Redis)
	if p.Redis != nil {
		readiness["redis"] = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site.CORSOrigins),
		middleware.Session(p.Verifier, cfg.Access.SessionTimeout, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	linkPolicy := middleware.NewAuthRateLimitPolicy(
		"auth_link",
		cfg.AuthRateLimit.LinkWindow,
		cfg.AuthRateLimit.LinkIPLimit,
		cfg.AuthRateLimit.LinkEmailLimit,
	)
	loginLimit := middleware.AuthRateLimit(loginPolicy, rateStore, logg)
	linkLimit := middleware.AuthRateLimit(linkPolicy, rateStore, logg)
	idempotent := middleware.Idempotency(idemStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/site", controllers.PublicSite(p.Content))
		r.Get("/pricing", controllers.PublicPricing(p.Content))
		r.Get("/faq", controllers.PublicFAQ(p.Content))
		r.Get("/testimonials", controllers.PublicTestimonials(p.Content))
		r.Get("/nav", controllers.PublicNav(p.Content))
	})

	r.With(loginLimit).Post("/api/v1/auth/signin", controllers.AuthSignIn(p.Sessions, p.Resolver, cookies, logg))
	r.With(loginLimit).Post(cfg.Access.AdminLoginPath, controllers.AdminLogin(p.Sessions, p.Resolver, cookies, logg))
	r.Get("/auth/callback", controllers.AuthCallback(p.Sessions, p.Resolver, cookies, logg))
	r.Post("/auth/signout", controllers.AuthSignOut(p.Sessions, cookies, logg))

	if p.Stripe != nil && p.Stripe.WebhooksEnabled() && p.StripeWebhook != nil && p.WebhookGuard != nil {
		r.Post("/api/v1/webhooks/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.Stripe, p.WebhookGuard, logg))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.GuardPage(p.Resolver, areas.Dashboard))
		r.Get("/dashboard", controllers.DashboardHome(p.Content))
		r.Get("/dashboard/account", controllers.DashboardAccount())
	})

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Use(middleware.GuardAPI(p.Resolver, areas.Dashboard, logg))
		r.Get("/robot", controllers.RobotTelemetry(p.Robot))
		r.Post("/robot/toggle", controllers.RobotToggle(p.Robot))
	})

	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Use(middleware.RequireIdentity(logg))
		r.Get("/", controllers.PostsList(p.Posts, logg))
		r.With(idempotent).Post("/", controllers.PostsCreate(p.Posts, logg))
		r.Patch("/{postId}", controllers.PostsUpdate(p.Posts, logg))
		r.Delete("/{postId}", controllers.PostsDelete(p.Posts, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.GuardPage(p.Resolver, areas.Admin))
		r.Get("/", controllers.AdminDashboard(p.Admin))
		r.Get("/users", controllers.AdminUsers(p.Admin))
		r.Get("/subscriptions", controllers.AdminSubscriptions(p.Admin))
	})

	r.Route("/api/admin/auth", func(r chi.Router) {
		r.Use(middleware.GuardAPI(p.Resolver, areas.Admin, logg))
		r.Use(linkLimit)
		r.With(idempotent).Post("/invite", controllers.AdminAuthAction(p.AuthActions, enums.LinkTypeInvite, logg))
		r.With(idempotent).Post("/magic-link", controllers.AdminAuthAction(p.AuthActions, enums.LinkTypeMagicLink, logg))
		r.With(idempotent).Post("/recovery", controllers.AdminAuthAction(p.AuthActions, enums.LinkTypeRecovery, logg))
	})

	r.With(middleware.GuardAPI(p.Resolver, areas.Admin, logg)).
		Get("/api/stripe/dashboard", controllers.StripeDashboard(p.Payments, logg))

	if !cfg.App.IsProd() && cfg.DebugLog.Enabled && p.DebugLog != nil {
		r.Route("/api/debug-logs", func(r chi.Router) {
			r.Get("/", controllers.DebugLogList(p.DebugLog, cfg.DebugLog.Capacity, logg))
			r.Post("/", controllers.DebugLogAppend(p.DebugLog, logg))
		})
	}

	return r
}

// rateLimitStores returns untyped nils when Redis is absent so the middlewares disable themselves.
func rateLimitStores(client *redis.Client) (middleware.RateLimiterStore, redis.IdempotencyStore) {
	if client == nil {
		return nil, nil
	}
	return client, client
}
