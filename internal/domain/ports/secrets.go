package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string
	Version   string
	Metadata  map[string]string
	CreatedAt string
}

// SecretProvider resolves credentials (database password, API key, cron
// secret) at startup. Path format depends on the backend:
//   - local: file path relative to the provider's base directory
//   - aws:   secret name or ARN
//   - vault: path under the KV v2 mount
type SecretProvider interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// Name identifies the backend in logs
	Name() string
}
