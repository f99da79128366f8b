package config

import (
	"context"

	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// NewSecretProvider builds the configured provider. The env provider returns
// nil: credentials stay as read from the environment.
func (c SecretsConfig) NewSecretProvider(ctx context.Context, logger *zap.Logger) (ports.SecretProvider, error) {
	switch c.Provider {
	case SecretsLocal:
		return secrets.NewLocalProvider(c.LocalPath, logger), nil
	case SecretsAWS:
		p, err := secrets.NewAWSProvider(ctx, secrets.AWSConfig{
			Region:      c.AWSRegion,
			Profile:     c.AWSProfile,
			Endpoint:    c.AWSEndpoint,
			CacheTTL:    c.CacheTTL,
			EnableCache: c.CacheTTL > 0,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case SecretsVault:
		p, err := secrets.NewVaultProvider(ctx, secrets.VaultConfig{
			Address:     c.VaultAddress,
			AuthMethod:  c.VaultAuthMethod,
			Token:       c.VaultToken,
			RoleID:      c.VaultRoleID,
			SecretID:    c.VaultSecretID,
			Namespace:   c.VaultNamespace,
			MountPath:   c.VaultMountPath,
			CacheTTL:    c.CacheTTL,
			EnableCache: c.CacheTTL > 0,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}
