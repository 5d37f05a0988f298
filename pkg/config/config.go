package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Site         SiteConfig
	Pricing      PricingConfig
	Cart         CartConfig
	Ledger       LedgerConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Mail         MailConfig
	Sendgrid     SendgridConfig
	SMTP         SMTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RINKSHOTS_APP_ENV" required:"true"`
	Port         string `envconfig:"RINKSHOTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RINKSHOTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RINKSHOTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"RINKSHOTS_DB_DSN"`
	Driver string `envconfig:"RINKSHOTS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"RINKSHOTS_DB_HOST"`
	Port     int    `envconfig:"RINKSHOTS_DB_PORT" default:"5432"`
	User     string `envconfig:"RINKSHOTS_DB_USER"`
	Password string `envconfig:"RINKSHOTS_DB_PASSWORD"`
	Name     string `envconfig:"RINKSHOTS_DB_NAME"`
	SSLMode  string `envconfig:"RINKSHOTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RINKSHOTS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"RINKSHOTS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"RINKSHOTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RINKSHOTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RINKSHOTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RINKSHOTS_REDIS_ADDR"`
	Password     string        `envconfig:"RINKSHOTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RINKSHOTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RINKSHOTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RINKSHOTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RINKSHOTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RINKSHOTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RINKSHOTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig describes how access tokens minted by the auth provider are verified.
type IdentityConfig struct {
	JWTSecret   string `envconfig:"RINKSHOTS_IDENTITY_JWT_SECRET"`
	JWTIssuer   string `envconfig:"RINKSHOTS_IDENTITY_JWT_ISSUER"`
	JWTAudience string `envconfig:"RINKSHOTS_IDENTITY_JWT_AUDIENCE" default:"authenticated"`
}

type SiteConfig struct {
	URL            string   `envconfig:"RINKSHOTS_SITE_URL" default:"http://localhost:3000"`
	AllowedOrigins []string `envconfig:"RINKSHOTS_CORS_ORIGINS" default:"http://localhost:3000"`
}

// SuccessURL is the Stripe redirect target after a completed payment.
func (s SiteConfig) SuccessURL() string {
	return strings.TrimRight(s.URL, "/") + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is the Stripe redirect target when the buyer abandons checkout.
func (s SiteConfig) CancelURL() string {
	return strings.TrimRight(s.URL, "/") + "/cart?payment_cancelled=true"
}

type PricingConfig struct {
	Currency string `envconfig:"RINKSHOTS_PRICE_CURRENCY" default:"eur"`
	Digital  string `envconfig:"RINKSHOTS_PRICE_DIGITAL" default:"4.00"`
	Print    string `envconfig:"RINKSHOTS_PRICE_PRINT" default:"8.00"`
}

// DigitalPrice parses the configured digital price.
func (p PricingConfig) DigitalPrice() decimal.Decimal {
	return decimal.RequireFromString(p.Digital)
}

// PrintPrice parses the configured print price.
func (p PricingConfig) PrintPrice() decimal.Decimal {
	return decimal.RequireFromString(p.Print)
}

func (p PricingConfig) validate() error {
	for name, raw := range map[string]string{EnvPriceDigital: p.Digital, EnvPricePrint: p.Print} {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", name, err)
		}
		if !value.IsPositive() {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

type CartConfig struct {
	TTL time.Duration `envconfig:"RINKSHOTS_CART_TTL" default:"720h"`
}

type LedgerConfig struct {
	Driver  string        `envconfig:"RINKSHOTS_LEDGER_DRIVER" default:"redis"`
	Lease   time.Duration `envconfig:"RINKSHOTS_LEDGER_LEASE" default:"2m"`
	DoneTTL time.Duration `envconfig:"RINKSHOTS_LEDGER_DONE_TTL" default:"2160h"`
}

type RateLimitConfig struct {
	FinalizeWindow time.Duration `envconfig:"RINKSHOTS_RATE_LIMIT_FINALIZE_WINDOW" default:"1m"`
	FinalizeLimit  int           `envconfig:"RINKSHOTS_RATE_LIMIT_FINALIZE_LIMIT" default:"30"`
	CheckoutWindow time.Duration `envconfig:"RINKSHOTS_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"RINKSHOTS_RATE_LIMIT_CHECKOUT_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool `envconfig:"RINKSHOTS_USE_SQLITE" default:"false"`
	AutoMigrate    bool `envconfig:"RINKSHOTS_AUTO_MIGRATE" default:"false"`
	AttachDigitals bool `envconfig:"RINKSHOTS_ATTACH_DIGITAL_PHOTOS" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RINKSHOTS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RINKSHOTS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RINKSHOTS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"RINKSHOTS_GCS_BUCKET_NAME" default:"photos"`
	PublicBaseURL     string        `envconfig:"RINKSHOTS_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	AccessMode        string        `envconfig:"RINKSHOTS_GCS_ACCESS_MODE" default:"public"`
	DownloadURLExpiry time.Duration `envconfig:"RINKSHOTS_GCS_DOWNLOAD_URL_EXPIRY" default:"168h"`
	UploadURLExpiry   time.Duration `envconfig:"RINKSHOTS_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	WatermarkBucket   string        `envconfig:"RINKSHOTS_GCS_WATERMARK_BUCKET" default:"watermarks"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"RINKSHOTS_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"RINKSHOTS_STRIPE_API_KEY"`
	Secret string `envconfig:"RINKSHOTS_STRIPE_SECRET"`
	Env    string `envconfig:"RINKSHOTS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MailConfig struct {
	Provider     string `envconfig:"RINKSHOTS_MAIL_PROVIDER" default:"log"`
	From         string `envconfig:"RINKSHOTS_MAIL_FROM" default:"orders@rinkshots.local"`
	AdminAddress string `envconfig:"RINKSHOTS_MAIL_ADMIN_ADDRESS" default:"onetwoclickcz@gmail.com"`
	PickupNote   string `envconfig:"RINKSHOTS_MAIL_PICKUP_NOTE" default:"The photos in printed form will be available to pick up daily at ICE RINK SKODA."`
}

type SendgridConfig struct {
	APIKey string `envconfig:"RINKSHOTS_SENDGRID_API_KEY"`
}

type SMTPConfig struct {
	Host     string `envconfig:"RINKSHOTS_SMTP_HOST"`
	Port     int    `envconfig:"RINKSHOTS_SMTP_PORT" default:"587"`
	Secure   bool   `envconfig:"RINKSHOTS_SMTP_SECURE" default:"false"`
	Username string `envconfig:"RINKSHOTS_SMTP_USER"`
	Password string `envconfig:"RINKSHOTS_SMTP_PASS"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:rinkshots.db?_foreign_keys=on"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
