package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Midtrans     MidtransConfig
	Cancellation CancellationConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
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
	Env          string `envconfig:"DIS_APP_ENV" required:"true"`
	Port         string `envconfig:"DIS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"DIS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIS_DB_DSN"`
	Driver string `envconfig:"DIS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DIS_DB_HOST"`
	Port     int    `envconfig:"DIS_DB_PORT" default:"5432"`
	User     string `envconfig:"DIS_DB_USER"`
	Password string `envconfig:"DIS_DB_PASSWORD"`
	Name     string `envconfig:"DIS_DB_NAME"`
	SSLMode  string `envconfig:"DIS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DIS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIS_REDIS_URL" required:"true"`
	Password     string        `envconfig:"DIS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DIS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DIS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DIS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DIS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DIS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DIS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DIS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DIS_ARGON_KEY_LEN" default:"32"`
}

// MidtransConfig carries the payment gateway credentials. It is injected
// into the gateway client and never read from ambient globals.
type MidtransConfig struct {
	ServerKey    string        `envconfig:"DIS_MIDTRANS_SERVER_KEY" required:"true"`
	ClientKey    string        `envconfig:"DIS_MIDTRANS_CLIENT_KEY"`
	Env          string        `envconfig:"DIS_MIDTRANS_ENV" default:"sandbox"`
	TokenTimeout time.Duration `envconfig:"DIS_MIDTRANS_TOKEN_TIMEOUT" default:"10s"`
}

// Environment returns the normalized gateway environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// CancellationConfig makes the pre-production allow-list explicit rather
// than inferring it from status ordering.
type CancellationConfig struct {
	AllowedStatuses []string `envconfig:"DIS_CANCELLATION_ALLOWED_STATUSES" default:"Pending Payment,Partially Paid,Paid,Processing,Design Approval"`
}

// AllowedOrderStatuses parses the configured list, dropping unknown values.
func (c CancellationConfig) AllowedOrderStatuses() []enums.OrderStatus {
	out := make([]enums.OrderStatus, 0, len(c.AllowedStatuses))
	for _, raw := range c.AllowedStatuses {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		out = append(out, status)
	}
	return out
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DIS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DIS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DIS_OUTBOX_MAX_ATTEMPTS" default:"3"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"DIS_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"DIS_DB_HOST": db.Host,
		"DIS_DB_USER": db.User,
		"DIS_DB_NAME": db.Name,
	}
	for _, key := range []string{"DIS_DB_HOST", "DIS_DB_USER", "DIS_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either DIS_DB_DSN or %s are required", strings.Join(missing, ", "))
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
