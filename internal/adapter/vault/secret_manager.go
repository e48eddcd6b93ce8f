package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

type SecretManager struct {
	client *api.Client
	mount  string
	log    *zap.Logger
}

func NewSecretManager(address, token, mount string, log *zap.Logger) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(token)

	if mount == "" {
		mount = "secret"
	}
	return &SecretManager{client: client, mount: mount, log: log}, nil
}

// MongoURI reads the connection string stored at <mount>/mongo.
func (sm *SecretManager) MongoURI(ctx context.Context) (string, error) {
	return sm.connectionString(ctx, "mongo")
}

// DatabaseURL reads the connection string stored at <mount>/database.
func (sm *SecretManager) DatabaseURL(ctx context.Context) (string, error) {
	return sm.connectionString(ctx, "database")
}

func (sm *SecretManager) connectionString(ctx context.Context, path string) (string, error) {
	secret, err := sm.client.KVv2(sm.mount).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s/%s: %w", sm.mount, path, err)
	}

	value, ok := secret.Data["connection_string"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret %s/%s has no connection_string", sm.mount, path)
	}

	sm.log.Debug("Resolved connection string from vault", zap.String("path", path))
	return value, nil
}
