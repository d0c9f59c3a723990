package config

const (
	EnvPrefix = "BURGNICE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "BURGNICE_APP_ENV"
	EnvPort          = "BURGNICE_APP_PORT"
	EnvDBDSN         = "BURGNICE_DB_DSN"
	EnvDBHost        = "BURGNICE_DB_HOST"
	EnvDBUser        = "BURGNICE_DB_USER"
	EnvDBName        = "BURGNICE_DB_NAME"
	EnvUseSQLite     = "BURGNICE_USE_SQLITE"
	EnvRedisURL      = "BURGNICE_REDIS_URL"
	EnvSessionSecret = "BURGNICE_SESSION_SECRET"
	EnvUpstreamURL   = "BURGNICE_UPSTREAM_BASE_URL"
	EnvRedeemCap     = "BURGNICE_LOYALTY_REDEEM_CAP"
	EnvPendingTTL    = "BURGNICE_CHECKOUT_PENDING_PAYMENT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
