package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"

	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

// Config is loaded once at process start and treated as read-only afterwards.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Supabase      SupabaseConfig
	Stripe        StripeConfig
	Access        AccessConfig
	Billing       BillingConfig
	Site          SiteConfig
	AuthRateLimit AuthRateLimitConfig
	DebugLog      DebugLogConfig
	Postmark      PostmarkConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every inconsistent value at once.
func (c *Config) Validate() error {
	var errs error
	errs = multierr.Append(errs, c.Supabase.validate())
	errs = multierr.Append(errs, c.Access.validate(c.App))
	errs = multierr.Append(errs, c.Billing.validate())
	errs = multierr.Append(errs, c.DebugLog.validate())
	errs = multierr.Append(errs, c.Postmark.validate())
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"AUTOFLEX_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOFLEX_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AUTOFLEX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOFLEX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOFLEX_DB_DSN"`
	Driver string `envconfig:"AUTOFLEX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOFLEX_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOFLEX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOFLEX_DB_USER"`
	LegacyPassword string `envconfig:"AUTOFLEX_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOFLEX_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOFLEX_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"AUTOFLEX_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"AUTOFLEX_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOFLEX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOFLEX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"AUTOFLEX_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOFLEX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTOFLEX_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOFLEX_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOFLEX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOFLEX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOFLEX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOFLEX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOFLEX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOFLEX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SupabaseConfig holds the hosted auth provider endpoints and keys.
type SupabaseConfig struct {
	URL            string        `envconfig:"AUTOFLEX_SUPABASE_URL" required:"true"`
	AnonKey        string        `envconfig:"AUTOFLEX_SUPABASE_ANON_KEY" required:"true"`
	ServiceRoleKey string        `envconfig:"AUTOFLEX_SUPABASE_SERVICE_ROLE_KEY" required:"true"`
	JWTSecret      string        `envconfig:"AUTOFLEX_SUPABASE_JWT_SECRET"`
	JWKSURL        string        `envconfig:"AUTOFLEX_SUPABASE_JWKS_URL"`
	JWTAudience    string        `envconfig:"AUTOFLEX_SUPABASE_JWT_AUDIENCE" default:"authenticated"`
	HTTPTimeout    time.Duration `envconfig:"AUTOFLEX_SUPABASE_HTTP_TIMEOUT" default:"10s"`
}

// Issuer is the token issuer Supabase stamps on access tokens.
func (s SupabaseConfig) Issuer() string {
	return strings.TrimRight(s.URL, "/") + "/auth/v1"
}

func (s SupabaseConfig) validate() error {
	var errs error
	if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s must be an absolute URL", EnvSupabaseURL))
	}
	if strings.TrimSpace(s.JWTSecret) == "" && strings.TrimSpace(s.JWKSURL) == "" {
		errs = multierr.Append(errs, fmt.Errorf("either %s or %s is required", EnvSupabaseJWTSecret, EnvSupabaseJWKSURL))
	}
	if s.HTTPTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvSupabaseHTTPTimeout))
	}
	return errs
}

type StripeConfig struct {
	APIKey string `envconfig:"AUTOFLEX_STRIPE_API_KEY" required:"true"`
	Secret string `envconfig:"AUTOFLEX_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"AUTOFLEX_STRIPE_ENV" default:"test"`
	// MaxRetries is the SDK's network retry budget per request.
	MaxRetries int64 `envconfig:"AUTOFLEX_STRIPE_MAX_RETRIES" default:"2"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// AccessConfig carries the per-area allow-lists and guard timeouts.
type AccessConfig struct {
	AdminRoles        []string      `envconfig:"AUTOFLEX_ACCESS_ADMIN_ROLES" default:"admin"`
	DashboardBypass   bool          `envconfig:"AUTOFLEX_ACCESS_DASHBOARD_BYPASS" default:"false"`
	RoleLookupTimeout time.Duration `envconfig:"AUTOFLEX_ACCESS_ROLE_LOOKUP_TIMEOUT" default:"3s"`
	SessionTimeout    time.Duration `envconfig:"AUTOFLEX_ACCESS_SESSION_TIMEOUT" default:"2s"`
	SignInPath        string        `envconfig:"AUTOFLEX_ACCESS_SIGNIN_PATH" default:"/signin"`
	AdminLoginPath    string        `envconfig:"AUTOFLEX_ACCESS_ADMIN_LOGIN_PATH" default:"/admin-login"`
	AdminHomePath     string        `envconfig:"AUTOFLEX_ACCESS_ADMIN_HOME_PATH" default:"/admin"`
	UserHomePath      string        `envconfig:"AUTOFLEX_ACCESS_USER_HOME_PATH" default:"/dashboard/account"`
	CookieSecure      bool          `envconfig:"AUTOFLEX_ACCESS_COOKIE_SECURE" default:"true"`
}

// AdminRoleSet returns the normalized admin allow-list.
func (a AccessConfig) AdminRoleSet() []enums.Role {
	out := make([]enums.Role, 0, len(a.AdminRoles))
	for _, raw := range a.AdminRoles {
		role, err := enums.ParseRole(raw)
		if err != nil {
			continue
		}
		out = append(out, role)
	}
	return out
}

func (a AccessConfig) validate(app AppConfig) error {
	var errs error
	if len(a.AdminRoles) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must list at least one role", EnvAccessAdminRoles))
	}
	for _, raw := range a.AdminRoles {
		if _, err := enums.ParseRole(raw); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", EnvAccessAdminRoles, err))
		}
	}
	if a.DashboardBypass && app.IsProd() {
		errs = multierr.Append(errs, fmt.Errorf("%s cannot be enabled in production", EnvAccessDashboardBypass))
	}
	if a.RoleLookupTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvAccessRoleLookupTimeout))
	}
	if a.SessionTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvAccessSessionTimeout))
	}
	for _, p := range []string{a.SignInPath, a.AdminLoginPath, a.AdminHomePath, a.UserHomePath} {
		if !strings.HasPrefix(p, "/") {
			errs = multierr.Append(errs, fmt.Errorf("redirect path %q must be site-relative", p))
		}
	}
	return errs
}

type BillingConfig struct {
	TableLimit int    `envconfig:"AUTOFLEX_BILLING_TABLE_LIMIT" default:"25"`
	Sort       string `envconfig:"AUTOFLEX_BILLING_SORT" default:"desc"`
	Currency   string `envconfig:"AUTOFLEX_BILLING_CURRENCY" default:"usd"`
}

func (b BillingConfig) validate() error {
	var errs error
	if b.TableLimit <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvBillingTableLimit))
	}
	switch strings.ToLower(strings.TrimSpace(b.Sort)) {
	case "asc", "desc":
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s must be asc or desc, got %q", EnvBillingSort, b.Sort))
	}
	return errs
}

type SiteConfig struct {
	Name            string   `envconfig:"AUTOFLEX_SITE_NAME" default:"AutoFlex Easy"`
	URL             string   `envconfig:"AUTOFLEX_SITE_URL" default:"http://localhost:3000"`
	AuthCallbackURL string   `envconfig:"AUTOFLEX_SITE_AUTH_CALLBACK_URL"`
	CORSOrigins     []string `envconfig:"AUTOFLEX_SITE_CORS_ORIGINS" default:"http://localhost:3000"`
}

// CallbackURL is the default redirect target handed to the auth provider.
func (s SiteConfig) CallbackURL() string {
	if s.AuthCallbackURL != "" {
		return s.AuthCallbackURL
	}
	return strings.TrimRight(s.URL, "/") + "/auth/callback"
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LinkWindow      time.Duration `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LINK_WINDOW" default:"5m"`
	LinkEmailLimit  int           `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LINK_EMAIL_LIMIT" default:"3"`
	LinkIPLimit     int           `envconfig:"AUTOFLEX_AUTH_RATE_LIMIT_LINK_IP_LIMIT" default:"20"`
}

type DebugLogConfig struct {
	Enabled  bool   `envconfig:"AUTOFLEX_DEBUG_LOG_ENABLED" default:"true"`
	Backend  string `envconfig:"AUTOFLEX_DEBUG_LOG_BACKEND" default:"memory"`
	Capacity int    `envconfig:"AUTOFLEX_DEBUG_LOG_CAPACITY" default:"100"`
}

func (d DebugLogConfig) validate() error {
	var errs error
	switch d.Backend {
	case DebugLogBackendMemory, DebugLogBackendRedis:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s must be %s or %s", EnvDebugLogBackend, DebugLogBackendMemory, DebugLogBackendRedis))
	}
	if d.Capacity <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvDebugLogCapacity))
	}
	return errs
}

type PostmarkConfig struct {
	ServerToken  string `envconfig:"AUTOFLEX_POSTMARK_SERVER_TOKEN"`
	AccountToken string `envconfig:"AUTOFLEX_POSTMARK_ACCOUNT_TOKEN"`
	From         string `envconfig:"AUTOFLEX_POSTMARK_FROM"`
	ReplyTo      string `envconfig:"AUTOFLEX_POSTMARK_REPLY_TO"`
}

// Enabled reports whether auth links should also be emailed.
func (p PostmarkConfig) Enabled() bool {
	return strings.TrimSpace(p.ServerToken) != ""
}

func (p PostmarkConfig) validate() error {
	if p.Enabled() && strings.TrimSpace(p.From) == "" {
		return fmt.Errorf("%s is required when %s is set", EnvPostmarkFrom, EnvPostmarkServerToken)
	}
	return nil
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"AUTOFLEX_CRON_INTERVAL" default:"15m"`
	LockTTL     time.Duration `envconfig:"AUTOFLEX_CRON_LOCK_TTL" default:"10m"`
	JobTimeout  time.Duration `envconfig:"AUTOFLEX_CRON_JOB_TIMEOUT" default:"5m"`
	MetricsPort string        `envconfig:"AUTOFLEX_CRON_METRICS_PORT" default:"9102"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AUTOFLEX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AUTOFLEX_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
