package config

const EnvPrefix = "AUTOFLEX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DebugLogBackendMemory = "memory"
	DebugLogBackendRedis  = "redis"
)

const (
	EnvAppEnv   = "AUTOFLEX_APP_ENV"
	EnvPort     = "AUTOFLEX_APP_PORT"
	EnvLogLevel = "AUTOFLEX_LOG_LEVEL"

	EnvDBDSN  = "AUTOFLEX_DB_DSN"
	EnvDBHost = "AUTOFLEX_DB_HOST"
	EnvDBUser = "AUTOFLEX_DB_USER"
	EnvDBName = "AUTOFLEX_DB_NAME"

	EnvRedisURL = "AUTOFLEX_REDIS_URL"

	EnvSupabaseURL            = "AUTOFLEX_SUPABASE_URL"
	EnvSupabaseAnonKey        = "AUTOFLEX_SUPABASE_ANON_KEY"
	EnvSupabaseServiceRoleKey = "AUTOFLEX_SUPABASE_SERVICE_ROLE_KEY"
	EnvSupabaseJWTSecret      = "AUTOFLEX_SUPABASE_JWT_SECRET"
	EnvSupabaseJWKSURL        = "AUTOFLEX_SUPABASE_JWKS_URL"
	EnvSupabaseHTTPTimeout    = "AUTOFLEX_SUPABASE_HTTP_TIMEOUT"

	EnvStripeAPIKey = "AUTOFLEX_STRIPE_API_KEY"
	EnvStripeSecret = "AUTOFLEX_STRIPE_WEBHOOK_SECRET"

	EnvAccessAdminRoles        = "AUTOFLEX_ACCESS_ADMIN_ROLES"
	EnvAccessDashboardBypass   = "AUTOFLEX_ACCESS_DASHBOARD_BYPASS"
	EnvAccessRoleLookupTimeout = "AUTOFLEX_ACCESS_ROLE_LOOKUP_TIMEOUT"
	EnvAccessSessionTimeout    = "AUTOFLEX_ACCESS_SESSION_TIMEOUT"

	EnvBillingTableLimit = "AUTOFLEX_BILLING_TABLE_LIMIT"
	EnvBillingSort       = "AUTOFLEX_BILLING_SORT"

	EnvDebugLogBackend  = "AUTOFLEX_DEBUG_LOG_BACKEND"
	EnvDebugLogCapacity = "AUTOFLEX_DEBUG_LOG_CAPACITY"

	EnvPostmarkServerToken = "AUTOFLEX_POSTMARK_SERVER_TOKEN"
	EnvPostmarkFrom        = "AUTOFLEX_POSTMARK_FROM"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
