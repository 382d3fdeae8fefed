package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Upstream     UpstreamConfig
	Currency     CurrencyConfig
	Session      SessionConfig
	HTTP         HTTPConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POSFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"POSFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POSFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POSFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"POSFRONT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"POSFRONT_DB_DSN"`
	Driver string `envconfig:"POSFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POSFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"POSFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POSFRONT_DB_USER"`
	LegacyPassword string `envconfig:"POSFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"POSFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"POSFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POSFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POSFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POSFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POSFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"POSFRONT_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POSFRONT_REDIS_URL"`
	Address      string        `envconfig:"POSFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"POSFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"POSFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POSFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POSFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POSFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POSFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POSFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"POSFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"POSFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"POSFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// UpstreamConfig points at the retail REST API the UI data comes from.
type UpstreamConfig struct {
	BaseURL      string        `envconfig:"POSFRONT_UPSTREAM_BASE_URL" required:"true"`
	ServiceToken string        `envconfig:"POSFRONT_UPSTREAM_SERVICE_TOKEN"`
	Timeout      time.Duration `envconfig:"POSFRONT_UPSTREAM_TIMEOUT" default:"10s"`
	// ForwardUserToken attaches the caller's bearer token instead of the service token.
	ForwardUserToken bool `envconfig:"POSFRONT_UPSTREAM_FORWARD_USER_TOKEN" default:"true"`
}

type CurrencyConfig struct {
	CacheTTL time.Duration `envconfig:"POSFRONT_CURRENCY_CACHE_TTL" default:"15m"`
}

type SessionConfig struct {
	SelectionTTL time.Duration `envconfig:"POSFRONT_SESSION_SELECTION_TTL" default:"12h"`
}

// HTTPConfig covers the browser-facing surface of the POS API.
type HTTPConfig struct {
	CORSOrigins []string `envconfig:"POSFRONT_CORS_ORIGINS" default:"http://localhost:3000"`

	CheckoutRateWindow       time.Duration `envconfig:"POSFRONT_CHECKOUT_RATE_WINDOW" default:"1m"`
	CheckoutRateIPLimit      int           `envconfig:"POSFRONT_CHECKOUT_RATE_IP_LIMIT" default:"60"`
	CheckoutRateSessionLimit int           `envconfig:"POSFRONT_CHECKOUT_RATE_SESSION_LIMIT" default:"10"`

	ShutdownTimeout time.Duration `envconfig:"POSFRONT_SHUTDOWN_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POSFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POSFRONT_AUTO_MIGRATE" default:"false"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvUpstreamBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvUpstreamBaseURL)
	}
	if !u.ForwardUserToken && strings.TrimSpace(u.ServiceToken) == "" {
		return fmt.Errorf("%s is required when user tokens are not forwarded", EnvUpstreamServiceToken)
	}
	return nil
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
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
