package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store driver selection.
const (
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Token    TokenConfig
	Provider ProviderConfig
	Secrets  SecretsConfig
	Admin    AdminConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// WebOrigin is the single caller origin allowed on the token and
	// access-code endpoints. All other origins are rejected.
	WebOrigin string
}

// TokenConfig controls token issuance and storage.
type TokenConfig struct {
	// TableName names the postgres table and doubles as the redis key prefix.
	TableName string
	// TTLSeconds is the fixed validity window assigned at issuance.
	TTLSeconds int
	// StoreDriver selects the backing token store: "redis" or "postgres".
	StoreDriver string
	// PurgeIntervalSeconds controls the postgres purge worker cadence.
	PurgeIntervalSeconds int
}

// ProviderConfig locates the external testing provider.
type ProviderConfig struct {
	BaseURL string
	// CredentialSecret names the secret holding the vendor API credential.
	// An absent secret is a valid steady state and switches exchange into
	// dev mode.
	CredentialSecret string
	TimeoutSeconds   int
}

// SecretsConfig controls named-secret lookup caching.
type SecretsConfig struct {
	CacheTTLSeconds int
}

// AdminConfig gates the administrative read surface.
type AdminConfig struct {
	// PasswordSecret names the secret holding the bcrypt hash of the shared
	// admin password. Absence is a configuration error on the admin surface,
	// never a silent fallback.
	PasswordSecret    string
	SessionTTLMinutes int
	SessionSigningKey string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	storeDriver := getEnv("TOKEN_STORE_DRIVER", StoreDriverRedis)
	if storeDriver != StoreDriverRedis && storeDriver != StoreDriverPostgres {
		return nil, fmt.Errorf("invalid TOKEN_STORE_DRIVER %q", storeDriver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "exam-access-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			WebOrigin:             getEnv("WEB_ORIGIN", "http://localhost:3000"),
		},
		Token: TokenConfig{
			TableName:            getEnv("TOKEN_TABLE_NAME", "access_tokens"),
			TTLSeconds:           getEnvAsInt("TOKEN_TTL_SECONDS", 900),
			StoreDriver:          storeDriver,
			PurgeIntervalSeconds: getEnvAsInt("TOKEN_PURGE_INTERVAL_SECONDS", 60),
		},
		Provider: ProviderConfig{
			BaseURL:          getEnv("PROVIDER_BASE_URL", ""),
			CredentialSecret: getEnv("PROVIDER_CREDENTIAL_SECRET", "PROVIDER_API_KEY"),
			TimeoutSeconds:   getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 10),
		},
		Secrets: SecretsConfig{
			CacheTTLSeconds: getEnvAsInt("SECRET_CACHE_TTL_SECONDS", 300),
		},
		Admin: AdminConfig{
			PasswordSecret:    getEnv("ADMIN_PASSWORD_SECRET", "ADMIN_PASSWORD_HASH"),
			SessionTTLMinutes: getEnvAsInt("ADMIN_SESSION_TTL_MINUTES", 15),
			SessionSigningKey: getEnv("ADMIN_SESSION_SIGNING_KEY", "dev-secret"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Token.TTLSeconds <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL_SECONDS must be positive")
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

// TTL returns the token validity window as a duration.
func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.TTLSeconds) * time.Second
}

// PurgeInterval returns the purge worker cadence.
func (t TokenConfig) PurgeInterval() time.Duration {
	if t.PurgeIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(t.PurgeIntervalSeconds) * time.Second
}

// Timeout returns the provider call timeout.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CacheTTL returns the secret cache lifetime.
func (s SecretsConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// SessionTTL returns the admin session token lifetime.
func (a AdminConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
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
