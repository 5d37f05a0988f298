package config

const EnvPrefix = "RINKSHOTS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "RINKSHOTS_APP_ENV"
	EnvPort         = "RINKSHOTS_APP_PORT"
	EnvDBDSN        = "RINKSHOTS_DB_DSN"
	EnvDBHost       = "RINKSHOTS_DB_HOST"
	EnvDBUser       = "RINKSHOTS_DB_USER"
	EnvDBName       = "RINKSHOTS_DB_NAME"
	EnvRedisURL     = "RINKSHOTS_REDIS_URL"
	EnvUseSQLite    = "RINKSHOTS_USE_SQLITE"
	EnvPriceDigital = "RINKSHOTS_PRICE_DIGITAL"
	EnvPricePrint   = "RINKSHOTS_PRICE_PRINT"
	EnvLedgerDriver = "RINKSHOTS_LEDGER_DRIVER"
	EnvMailProvider = "RINKSHOTS_MAIL_PROVIDER"
	EnvOrdersTopic  = "RINKSHOTS_PUBSUB_ORDERS_TOPIC"
	EnvSiteURL      = "RINKSHOTS_SITE_URL"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Ledger drivers accepted by RINKSHOTS_LEDGER_DRIVER.
const (
	LedgerDriverMemory   = "memory"
	LedgerDriverRedis    = "redis"
	LedgerDriverPostgres = "postgres"
)

// Mail providers accepted by RINKSHOTS_MAIL_PROVIDER.
const (
	MailProviderLog      = "log"
	MailProviderSendgrid = "sendgrid"
	MailProviderSMTP     = "smtp"
)
