package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// LocalProvider reads secrets from files under a base directory.
// For development only.
type LocalProvider struct {
	logger   *zap.Logger
	basePath string
}

// NewLocalProvider creates a filesystem secret provider
func NewLocalProvider(basePath string, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{basePath: basePath, logger: logger}
}

// Name identifies the backend
func (p *LocalProvider) Name() string { return "local" }

// GetSecret reads a secret file. The file holds either plain text or
// JSON of the form {"value": "...", "tags": {...}, "created_at": "..."}.
func (p *LocalProvider) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	filePath := filepath.Join(p.basePath, filepath.Clean("/"+secretPath))

	p.logger.Debug("Reading secret from filesystem", zap.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var secretData struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		return &ports.Secret{
			Value:     secretData.Value,
			Version:   "v1",
			Metadata:  secretData.Tags,
			CreatedAt: secretData.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "v1",
	}, nil
}
