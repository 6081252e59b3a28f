package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds values for the single store session.
type PostgresConfig struct {
	DSN                   string
	ConnectTimeoutSeconds int
	LockTimeoutSeconds    int
	RunMigrations         bool
	MigrationsDir         string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines credential verification parameters.
type AuthConfig struct {
	PublicKeyPEM  string
	Issuer        string
	LeewaySeconds int
	BcryptCost    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "classroom-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8002"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:                   os.Getenv("POSTGRES_DSN"),
			ConnectTimeoutSeconds: getEnvAsInt("POSTGRES_CONNECT_TIMEOUT_SECONDS", 10),
			LockTimeoutSeconds:    getEnvAsInt("POSTGRES_LOCK_TIMEOUT_SECONDS", 5),
			RunMigrations:         getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:         getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "classroom.events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			PublicKeyPEM:  getEnv("AUTH_RSA_PUBLIC_KEY", os.Getenv("RSASECRET")),
			Issuer:        getEnv("AUTH_ISSUER", "auth0"),
			LeewaySeconds: getEnvAsInt("AUTH_LEEWAY_SECONDS", 0),
			BcryptCost:    getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ConnectTimeout bounds the initial session dial.
func (p PostgresConfig) ConnectTimeout() time.Duration {
	if p.ConnectTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.ConnectTimeoutSeconds) * time.Second
}

// LockTimeout bounds how long a request waits for the store session.
// Zero means wait until the request context ends.
func (p PostgresConfig) LockTimeout() time.Duration {
	if p.LockTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.LockTimeoutSeconds) * time.Second
}

// Leeway returns the clock skew tolerated on time-based claims.
func (a AuthConfig) Leeway() time.Duration {
	if a.LeewaySeconds <= 0 {
		return 0
	}
	return time.Duration(a.LeewaySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
