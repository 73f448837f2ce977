package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

type Config struct {
	Env      string `env:"ENV" env-default:"dev"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Log      LogConfig
}

type HTTPConfig struct {
	// FLASK_HOST and FLASK_PORT are read when the HTTP_ names are unset.
	Host               string        `env:"HTTP_HOST,FLASK_HOST" env-default:"127.0.0.1"`
	Port               string        `env:"HTTP_PORT,FLASK_PORT" env-default:"5000"`
	ReadHeaderTimeout  time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSAllowedOrigins []string      `env:"HTTP_CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type PostgresConfig struct {
	Host           string        `env:"DB_HOST" env-default:"localhost"`
	Port           int           `env:"DB_PORT" env-default:"5432"`
	Username       string        `env:"DB_USER" env-default:"tablero_user"`
	Password       string        `env:"DB_PASSWORD" env-default:"password"`
	Database       string        `env:"DB_NAME" env-default:"tablero"`
	SSLMode        string        `env:"DB_SSL_MODE" env-default:"disable"`
	MinConns       int32         `env:"POSTGRES_MIN_CONNS" env-default:"1"`
	MaxConns       int32         `env:"POSTGRES_MAX_CONNS" env-default:"5"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	AcquireTimeout time.Duration `env:"POSTGRES_ACQUIRE_TIMEOUT" env-default:"5s"`
}

type LogConfig struct {
	// File enables an additional rotating log file when set.
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" env-default:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" env-default:"30"`
	Compress   bool   `env:"LOG_COMPRESS" env-default:"true"`
}

var (
	ErrUnknownEnv      = errors.New("unknown env")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidPoolSize = errors.New("invalid pool size")
)

func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEnv, c.Env)
	}

	if c.HTTP.Port == "" || c.HTTP.Port == "0" {
		return fmt.Errorf("%w: http port %q", ErrInvalidPort, c.HTTP.Port)
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return fmt.Errorf("%w: postgres port %d", ErrInvalidPort, c.Postgres.Port)
	}

	if c.Postgres.MinConns < 0 ||
		c.Postgres.MaxConns < 1 ||
		c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("%w: min %d, max %d",
			ErrInvalidPoolSize, c.Postgres.MinConns, c.Postgres.MaxConns)
	}

	return nil
}

// ConnURL builds the connection string accepted by pgxpool.ParseConfig.
func (c PostgresConfig) ConnURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}
