package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Secret providers
const (
	SecretsEnv   = "env"
	SecretsLocal = "local"
	SecretsAWS   = "aws"
	SecretsVault = "vault"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Notifier NotifierConfig
	Gateway  GatewayConfig
	Bulk     BulkConfig
	Security SecurityConfig
	Secrets  SecretsConfig
}

// ServerConfig holds HTTP, metrics and gRPC listener configuration
type ServerConfig struct {
	Port             string
	MetricsPort      string
	GRPCPort         int
	EnableReflection bool
	ShutdownTimeout  time.Duration
}

// StorageConfig selects the store implementation
type StorageConfig struct {
	Driver string // memory or postgres
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Environment string // development or production
}

// Development reports whether the development logger should be used
func (c LoggerConfig) Development() bool {
	return c.Environment != "production"
}

// NotifierConfig selects the reminder delivery chain
type NotifierConfig struct {
	// Kafka carries sms and whatsapp reminders when brokers are set
	KafkaBrokers []string
	KafkaTopic   string

	// SES carries email reminders when a sender address is set
	SESRegion    string
	SESFromEmail string
	SESEndpoint  string

	MaxAttempts      int
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// GatewayConfig configures the simulated payment-link gateway
type GatewayConfig struct {
	LinkBaseURL string
	LinkTTL     time.Duration
	FailureRate float64
}

// BulkConfig tunes bulk runs and the in-process overdue scheduler
type BulkConfig struct {
	ItemDelay time.Duration
	// OverdueInterval enables the in-process overdue reminder run; 0 disables
	OverdueInterval time.Duration
	OverdueTemplate string
}

// SecurityConfig holds API authentication and edge limits
type SecurityConfig struct {
	APIKey          string
	CronSecret      string
	AllowedOrigins  []string
	RateLimitRPS    float64
	RateLimitBurst  int
	TrustProxy      bool
	RateLimitEnable bool
}

// SecretsConfig selects the secret provider and the paths resolved through it
type SecretsConfig struct {
	Provider string

	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultNamespace  string
	VaultMountPath  string

	CacheTTL time.Duration

	// Paths are looked up in the provider; empty keeps the env value
	DBPasswordPath string
	APIKeyPath     string
	CronSecretPath string
}

// LoadFromEnv loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnv("PORT", "8080"),
			MetricsPort:      getEnv("METRICS_PORT", "9090"),
			GRPCPort:         getEnvAsInt("GRPC_PORT", 50051),
			EnableReflection: getEnvAsBool("GRPC_REFLECTION", false),
			ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "recurringhub"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Notifier: NotifierConfig{
			KafkaBrokers:     getEnvAsList("KAFKA_BROKERS"),
			KafkaTopic:       getEnv("KAFKA_REMINDER_TOPIC", "recurringhub.reminders"),
			SESRegion:        getEnv("SES_REGION", "ap-south-1"),
			SESFromEmail:     getEnv("SES_FROM_EMAIL", ""),
			SESEndpoint:      getEnv("SES_ENDPOINT", ""),
			MaxAttempts:      getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			BreakerThreshold: uint32(getEnvAsInt("NOTIFY_BREAKER_THRESHOLD", 5)),
			BreakerTimeout:   getEnvAsDuration("NOTIFY_BREAKER_TIMEOUT", 30*time.Second),
		},
		Gateway: GatewayConfig{
			LinkBaseURL: getEnv("PAYMENT_LINK_BASE_URL", ""),
			LinkTTL:     getEnvAsDuration("PAYMENT_LINK_TTL", 24*time.Hour),
			FailureRate: getEnvAsFloat("GATEWAY_FAILURE_RATE", 0),
		},
		Bulk: BulkConfig{
			ItemDelay:       getEnvAsDuration("BULK_ITEM_DELAY", 100*time.Millisecond),
			OverdueInterval: getEnvAsDuration("OVERDUE_REMINDER_INTERVAL", 0),
			OverdueTemplate: getEnv("OVERDUE_REMINDER_TEMPLATE", ""),
		},
		Security: SecurityConfig{
			APIKey:          getEnv("API_KEY", ""),
			CronSecret:      getEnv("CRON_SECRET", ""),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS"),
			RateLimitEnable: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
			TrustProxy:      getEnvAsBool("TRUST_PROXY", false),
		},
		Secrets: SecretsConfig{
			Provider:        strings.ToLower(getEnv("SECRET_PROVIDER", SecretsEnv)),
			LocalPath:       getEnv("LOCAL_SECRETS_PATH", "./secrets"),
			AWSRegion:       getEnv("AWS_REGION", "ap-south-1"),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
			AWSEndpoint:     getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			CacheTTL:        getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
			DBPasswordPath:  getEnv("DB_PASSWORD_SECRET", ""),
			APIKeyPath:      getEnv("API_KEY_SECRET", ""),
			CronSecretPath:  getEnv("CRON_SECRET_SECRET", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage.Driver)
	}

	switch c.Secrets.Provider {
	case SecretsEnv, SecretsLocal, SecretsAWS:
	case SecretsVault:
		if c.Secrets.VaultAddress == "" {
			return fmt.Errorf("VAULT_ADDR is required when SECRET_PROVIDER=vault")
		}
	default:
		return fmt.Errorf("SECRET_PROVIDER must be one of env, local, aws, vault; got %q", c.Secrets.Provider)
	}

	// The password may come from the secret provider instead
	if c.Storage.Driver == StoragePostgres && c.Database.Password == "" && c.Secrets.DBPasswordPath == "" {
		return fmt.Errorf("DB_PASSWORD is required when STORAGE_DRIVER=postgres")
	}

	if c.Gateway.FailureRate < 0 || c.Gateway.FailureRate > 1 {
		return fmt.Errorf("GATEWAY_FAILURE_RATE must be within [0,1]")
	}
	if c.Notifier.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// ResolveSecrets replaces credentials with values from the secret provider
// wherever a secret path is configured
func (c *Config) ResolveSecrets(ctx context.Context, r *secrets.Resolver) error {
	targets := []struct {
		path  string
		value *string
	}{
		{c.Secrets.DBPasswordPath, &c.Database.Password},
		{c.Secrets.APIKeyPath, &c.Security.APIKey},
		{c.Secrets.CronSecretPath, &c.Security.CronSecret},
	}

	for _, t := range targets {
		v, err := r.Resolve(ctx, t.path, *t.value)
		if err != nil {
			return err
		}
		*t.value = v
	}

	if c.Storage.Driver == StoragePostgres && c.Database.Password == "" {
		return fmt.Errorf("database password resolved empty")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection URL
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
