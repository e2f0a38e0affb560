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

	EnvDBDSN  = "BRANDVAULT_DB_DSN"
	EnvDBHost = "BRANDVAULT_DB_HOST"
	EnvDBUser = "BRANDVAULT_DB_USER"
	EnvDBName = "BRANDVAULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Audit         AuditConfig
	FeatureFlags  FeatureFlagsConfig
	MutationLimit MutationRateLimitConfig
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
	Env          string `envconfig:"BRANDVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"BRANDVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BRANDVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BRANDVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BRANDVAULT_DB_DSN"`
	Driver string `envconfig:"BRANDVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BRANDVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"BRANDVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BRANDVAULT_DB_USER"`
	LegacyPassword string `envconfig:"BRANDVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"BRANDVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"BRANDVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BRANDVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BRANDVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BRANDVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BRANDVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BRANDVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BRANDVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"BRANDVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"BRANDVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BRANDVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BRANDVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BRANDVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BRANDVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BRANDVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"BRANDVAULT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"BRANDVAULT_JWT_ISSUER" required:"true"`
}

type AuditConfig struct {
	// QueryMaxLimit bounds audit query page sizes independent of listing defaults.
	QueryMaxLimit int `envconfig:"BRANDVAULT_AUDIT_QUERY_MAX_LIMIT" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BRANDVAULT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BRANDVAULT_AUTO_MIGRATE" default:"false"`
}

type MutationRateLimitConfig struct {
	Window time.Duration `envconfig:"BRANDVAULT_MUTATION_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"BRANDVAULT_MUTATION_RATE_LIMIT" default:"60"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
