package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "mesaboard"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "MESABOARD_APP_ENV"
	EnvPort            = "MESABOARD_APP_PORT"
	EnvDBDSN           = "MESABOARD_DB_DSN"
	EnvDBHost          = "MESABOARD_DB_HOST"
	EnvDBUser          = "MESABOARD_DB_USER"
	EnvDBName          = "MESABOARD_DB_NAME"
	EnvRedisURL        = "MESABOARD_REDIS_URL"
	EnvKratosPublicURL = "MESABOARD_KRATOS_PUBLIC_URL"
	EnvSnapshotPath    = "MESABOARD_SNAPSHOT_PATH"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Kratos        KratosConfig
	Session       SessionConfig
	Snapshot      SnapshotConfig
	AuthRateLimit AuthRateLimitConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MESABOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"MESABOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MESABOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MESABOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MESABOARD_DB_DSN"`
	Driver string `envconfig:"MESABOARD_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MESABOARD_DB_HOST"`
	Port     int    `envconfig:"MESABOARD_DB_PORT" default:"5432"`
	User     string `envconfig:"MESABOARD_DB_USER"`
	Password string `envconfig:"MESABOARD_DB_PASSWORD"`
	Name     string `envconfig:"MESABOARD_DB_NAME"`
	SSLMode  string `envconfig:"MESABOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MESABOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MESABOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MESABOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MESABOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MESABOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MESABOARD_REDIS_ADDR"`
	Password     string        `envconfig:"MESABOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"MESABOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MESABOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MESABOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MESABOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MESABOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MESABOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// KratosConfig locates the hosted credential store.
type KratosConfig struct {
	PublicURL string        `envconfig:"MESABOARD_KRATOS_PUBLIC_URL" required:"true"`
	AdminURL  string        `envconfig:"MESABOARD_KRATOS_ADMIN_URL"`
	Timeout   time.Duration `envconfig:"MESABOARD_KRATOS_TIMEOUT" default:"10s"`
}

// SessionConfig bounds the reconciler's network fetches.
type SessionConfig struct {
	FetchTimeout       time.Duration `envconfig:"MESABOARD_SESSION_FETCH_TIMEOUT" default:"4s"`
	ExpiryPollInterval time.Duration `envconfig:"MESABOARD_SESSION_EXPIRY_POLL_INTERVAL" default:"30s"`
}

// SnapshotConfig controls the on-disk profile snapshot slot.
type SnapshotConfig struct {
	Path string        `envconfig:"MESABOARD_SNAPSHOT_PATH" default:".mesaboard/session.json"`
	TTL  time.Duration `envconfig:"MESABOARD_SNAPSHOT_TTL" default:"12h"`
}

type AuthRateLimitConfig struct {
	SignInWindow     time.Duration `envconfig:"MESABOARD_AUTH_RATE_LIMIT_SIGNIN_WINDOW" default:"1m"`
	SignInEmailLimit int           `envconfig:"MESABOARD_AUTH_RATE_LIMIT_SIGNIN_EMAIL_LIMIT" default:"5"`
	SignInIPLimit    int           `envconfig:"MESABOARD_AUTH_RATE_LIMIT_SIGNIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MESABOARD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
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
