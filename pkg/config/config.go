package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Upstream      UpstreamConfig
	Loyalty       LoyaltyConfig
	Checkout      CheckoutConfig
	Catalog       CatalogConfig
	RateLimit     RateLimitConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.App.IsProd() && cfg.FeatureFlags.UseSQLite {
		return nil, fmt.Errorf("%s is not allowed in %s", EnvUseSQLite, AppEnvProd)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BURGNICE_APP_ENV" required:"true"`
	Port         string `envconfig:"BURGNICE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BURGNICE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BURGNICE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BURGNICE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BURGNICE_DB_DSN"`
	Driver string `envconfig:"BURGNICE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BURGNICE_DB_HOST"`
	LegacyPort     int    `envconfig:"BURGNICE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BURGNICE_DB_USER"`
	LegacyPassword string `envconfig:"BURGNICE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BURGNICE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BURGNICE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"BURGNICE_DB_SQLITE_PATH" default:"burgnice.db"`

	MaxOpenConns    int           `envconfig:"BURGNICE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BURGNICE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BURGNICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BURGNICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BURGNICE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BURGNICE_REDIS_ADDR"`
	Password     string        `envconfig:"BURGNICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BURGNICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BURGNICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BURGNICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BURGNICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BURGNICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BURGNICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the tab-scoped session tokens and the lifetime of the
// state stored under them.
type SessionConfig struct {
	Secret string        `envconfig:"BURGNICE_SESSION_SECRET" required:"true"`
	Issuer string        `envconfig:"BURGNICE_SESSION_ISSUER" default:"burgnice-storefront"`
	TTL    time.Duration `envconfig:"BURGNICE_SESSION_TTL" default:"24h"`
}

type UpstreamConfig struct {
	BaseURL string        `envconfig:"BURGNICE_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"BURGNICE_UPSTREAM_TIMEOUT" default:"10s"`
}

// LoyaltyConfig exposes the redemption policy. Defaults match the published
// program terms.
type LoyaltyConfig struct {
	SpendPerPoint   float64 `envconfig:"BURGNICE_LOYALTY_SPEND_PER_POINT" default:"10"`
	RedeemCap       int     `envconfig:"BURGNICE_LOYALTY_REDEEM_CAP" default:"500"`
	PointsPerStep   int     `envconfig:"BURGNICE_LOYALTY_POINTS_PER_STEP" default:"100"`
	DiscountPerStep float64 `envconfig:"BURGNICE_LOYALTY_DISCOUNT_PER_STEP" default:"10"`
	SilverThreshold int     `envconfig:"BURGNICE_LOYALTY_SILVER_THRESHOLD" default:"500"`
	GoldThreshold   int     `envconfig:"BURGNICE_LOYALTY_GOLD_THRESHOLD" default:"1000"`
}

type CheckoutConfig struct {
	PendingPaymentTTL time.Duration `envconfig:"BURGNICE_CHECKOUT_PENDING_PAYMENT_TTL" default:"1h"`
	SubmitLockTTL     time.Duration `envconfig:"BURGNICE_CHECKOUT_SUBMIT_LOCK_TTL" default:"30s"`
	SuccessURL        string        `envconfig:"BURGNICE_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/payment/success"`
	CancelURL         string        `envconfig:"BURGNICE_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/payment/cancel"`
}

type CatalogConfig struct {
	CacheTTL     time.Duration `envconfig:"BURGNICE_CATALOG_CACHE_TTL" default:"5m"`
	TopDealsSize int           `envconfig:"BURGNICE_CATALOG_TOP_DEALS_SIZE" default:"6"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"BURGNICE_RATE_LIMIT_RPS" default:"10"`
	Burst             int     `envconfig:"BURGNICE_RATE_LIMIT_BURST" default:"20"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BURGNICE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BURGNICE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BURGNICE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BURGNICE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BURGNICE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BURGNICE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BURGNICE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BURGNICE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BURGNICE_AUTO_MIGRATE" default:"false"`
}

// Dialect returns the goose/gorm dialect matching the configured driver.
func (db DBConfig) Dialect(useSQLite bool) string {
	if useSQLite || strings.EqualFold(db.Driver, "sqlite") {
		return "sqlite3"
	}
	return "postgres"
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if db.Dialect(useSQLite) == "sqlite3" {
		db.DSN = db.SQLitePath
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
