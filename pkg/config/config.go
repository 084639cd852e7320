package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CAMPUSPAY_DB_DSN"
	EnvDBHost = "CAMPUSPAY_DB_HOST"
	EnvDBUser = "CAMPUSPAY_DB_USER"
	EnvDBName = "CAMPUSPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Razorpay     RazorpayConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Webhook      WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAMPUSPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSPAY_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"CAMPUSPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSPAY_DB_DSN"`
	Driver string `envconfig:"CAMPUSPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSPAY_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSPAY_REDIS_URL"`
	Address      string        `envconfig:"CAMPUSPAY_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string `envconfig:"RAZORPAY_WEBHOOK_SECRET" required:"true"`
}

type CORSConfig struct {
	ExtraOrigins []string `envconfig:"CAMPUSPAY_CORS_EXTRA_ORIGINS"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPUSPAY_AUTO_MIGRATE" default:"false"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CAMPUSPAY_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
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
