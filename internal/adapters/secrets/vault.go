package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// VaultConfig contains configuration for the HashiCorp Vault provider
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string

	Token    string
	RoleID   string
	SecretID string

	// Vault namespace (Vault Enterprise)
	Namespace string

	// KV v2 secrets engine mount path (default: "secret")
	MountPath string

	CacheTTL    time.Duration
	EnableCache bool
}

// VaultProvider resolves secrets from a Vault KV v2 engine
type VaultProvider struct {
	client    *vault.Client
	logger    *zap.Logger
	cache     *secretCache
	mountPath string
}

// NewVaultProvider creates and authenticates a Vault client
func NewVaultProvider(ctx context.Context, cfg VaultConfig, logger *zap.Logger) (*VaultProvider, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}

	logger.Info("Vault provider initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", mount),
	)

	return &VaultProvider{
		client:    client,
		logger:    logger,
		cache:     newSecretCache(cfg.EnableCache, cfg.CacheTTL),
		mountPath: mount,
	}, nil
}

// authenticateVault handles authentication with Vault
func authenticateVault(ctx context.Context, client *vault.Client, cfg VaultConfig) error {
	switch cfg.AuthMethod {
	case "", "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// Name identifies the backend
func (p *VaultProvider) Name() string { return "vault" }

// GetSecret reads mount/data/path and returns its "value" key
func (p *VaultProvider) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := p.cache.get(path); cached != nil {
		return cached, nil
	}

	secret, err := p.client.Logical().ReadWithContext(ctx, fmt.Sprintf("%s/data/%s", p.mountPath, path))
	if err != nil {
		p.logger.Error("Failed to retrieve secret from Vault", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	result, err := parseKVv2(secret.Data)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	p.cache.set(path, result)
	return result, nil
}

// parseKVv2 extracts the value and metadata from a KV v2 read response
func parseKVv2(raw map[string]interface{}) (*ports.Secret, error) {
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format from Vault")
	}

	result := &ports.Secret{Metadata: make(map[string]string)}
	if metadata, ok := raw["metadata"].(map[string]interface{}); ok {
		if v, ok := metadata["version"].(json.Number); ok {
			result.Version = v.String()
		}
		if ct, ok := metadata["created_time"].(string); ok {
			result.CreatedAt = ct
		}
	}

	for k, v := range data {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if k == "value" {
			result.Value = str
			continue
		}
		result.Metadata[k] = str
	}

	if result.Value == "" {
		return nil, fmt.Errorf("secret value is empty or not found")
	}
	return result, nil
}
