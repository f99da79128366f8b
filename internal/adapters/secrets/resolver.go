package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// Resolver fills credentials from a provider, keeping the configured value
// when no secret path is set
type Resolver struct {
	provider ports.SecretProvider
	logger   *zap.Logger
}

// NewResolver wraps provider. A nil provider resolves every value to its fallback.
func NewResolver(provider ports.SecretProvider, logger *zap.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

// Resolve returns the secret at path, or fallback when path is empty or no
// provider is configured
func (r *Resolver) Resolve(ctx context.Context, path, fallback string) (string, error) {
	if r.provider == nil || path == "" {
		return fallback, nil
	}

	secret, err := r.provider.GetSecret(ctx, path)
	if err != nil {
		return "", fmt.Errorf("resolve secret %s via %s: %w", path, r.provider.Name(), err)
	}

	r.logger.Info("Secret resolved",
		zap.String("provider", r.provider.Name()),
		zap.String("path", path),
		zap.String("version", secret.Version),
	)
	return secret.Value, nil
}
