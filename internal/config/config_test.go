package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
)

// clearEnv blanks every variable LoadFromEnv reads so the host
// environment cannot leak into a case
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "METRICS_PORT", "GRPC_PORT", "STORAGE_DRIVER", "DB_PASSWORD",
		"DB_PASSWORD_SECRET", "SECRET_PROVIDER", "VAULT_ADDR", "API_KEY",
		"CRON_SECRET", "KAFKA_BROKERS", "CORS_ALLOWED_ORIGINS", "GATEWAY_FAILURE_RATE",
		"NOTIFY_MAX_ATTEMPTS", "BULK_ITEM_DELAY", "OVERDUE_REMINDER_INTERVAL", "ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, SecretsEnv, cfg.Secrets.Provider)
	assert.Equal(t, 100*time.Millisecond, cfg.Bulk.ItemDelay)
	assert.Zero(t, cfg.Bulk.OverdueInterval)
	assert.Empty(t, cfg.Notifier.KafkaBrokers)
	assert.True(t, cfg.Logger.Development())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com")
	t.Setenv("BULK_ITEM_DELAY", "250ms")
	t.Setenv("OVERDUE_REMINDER_INTERVAL", "24h")
	t.Setenv("GRPC_PORT", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notifier.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Bulk.ItemDelay)
	assert.Equal(t, 24*time.Hour, cfg.Bulk.OverdueInterval)
	assert.Equal(t, 50051, cfg.Server.GRPCPort, "unparseable values fall back to the default")
	assert.False(t, cfg.Logger.Development())
}

func TestLoadFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown storage driver",
			env:     map[string]string{"STORAGE_DRIVER": "sqlite"},
			wantErr: "STORAGE_DRIVER",
		},
		{
			name:    "postgres without password",
			env:     map[string]string{"STORAGE_DRIVER": "postgres"},
			wantErr: "DB_PASSWORD is required",
		},
		{
			name: "postgres with password from secret provider",
			env: map[string]string{
				"STORAGE_DRIVER": "postgres", "SECRET_PROVIDER": "local", "DB_PASSWORD_SECRET": "db_password",
			},
		},
		{
			name:    "unknown secret provider",
			env:     map[string]string{"SECRET_PROVIDER": "gcp"},
			wantErr: "SECRET_PROVIDER",
		},
		{
			name:    "vault without address",
			env:     map[string]string{"SECRET_PROVIDER": "vault"},
			wantErr: "VAULT_ADDR",
		},
		{
			name:    "failure rate out of range",
			env:     map[string]string{"GATEWAY_FAILURE_RATE": "1.5"},
			wantErr: "GATEWAY_FAILURE_RATE",
		},
		{
			name:    "zero notify attempts",
			env:     map[string]string{"NOTIFY_MAX_ATTEMPTS": "0"},
			wantErr: "NOTIFY_MAX_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResolveSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("from-file\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cron"), []byte("cron-from-file"), 0600))

	cfg := &Config{
		Storage:  StorageConfig{Driver: StoragePostgres},
		Security: SecurityConfig{APIKey: "env-key", CronSecret: "env-cron"},
		Secrets: SecretsConfig{
			Provider:       SecretsLocal,
			LocalPath:      dir,
			DBPasswordPath: "db_password",
			CronSecretPath: "cron",
		},
	}

	provider, err := cfg.Secrets.NewSecretProvider(context.Background(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, cfg.ResolveSecrets(context.Background(), secrets.NewResolver(provider, zap.NewNop())))

	assert.Equal(t, "from-file", cfg.Database.Password)
	assert.Equal(t, "cron-from-file", cfg.Security.CronSecret)
	assert.Equal(t, "env-key", cfg.Security.APIKey, "no path keeps the env value")

	cfg.Secrets.APIKeyPath = "missing"
	assert.Error(t, cfg.ResolveSecrets(context.Background(), secrets.NewResolver(provider, zap.NewNop())))
}

func TestEnvProviderIsNil(t *testing.T) {
	p, err := SecretsConfig{Provider: SecretsEnv}.NewSecretProvider(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss word", Database: "recurringhub", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/recurringhub?sslmode=require", db.ConnectionString())
}
