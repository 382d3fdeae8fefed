package config

// EnvPrefix is passed to envconfig; every field carries an explicit tag so it is informational only.
const EnvPrefix = "POSFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:posfront.db?cache=shared"
)

const (
	EnvAppEnv               = "POSFRONT_APP_ENV"
	EnvPort                 = "POSFRONT_APP_PORT"
	EnvDBDSN                = "POSFRONT_DB_DSN"
	EnvDBHost               = "POSFRONT_DB_HOST"
	EnvDBUser               = "POSFRONT_DB_USER"
	EnvDBName               = "POSFRONT_DB_NAME"
	EnvRedisURL             = "POSFRONT_REDIS_URL"
	EnvJWTSecret            = "POSFRONT_JWT_SECRET"
	EnvJWTIssuer            = "POSFRONT_JWT_ISSUER"
	EnvUpstreamBaseURL      = "POSFRONT_UPSTREAM_BASE_URL"
	EnvUpstreamServiceToken = "POSFRONT_UPSTREAM_SERVICE_TOKEN"
	EnvUpstreamForwardToken = "POSFRONT_UPSTREAM_FORWARD_USER_TOKEN"
	EnvUseSQLite            = "POSFRONT_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
