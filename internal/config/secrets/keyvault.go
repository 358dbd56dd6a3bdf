package secrets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"

	"github.com/tripflow/console/internal/config"
)

const fetchTimeout = 10 * time.Second

// SecretGetter is the part of the Key Vault client the provider needs.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// KeyVaultProvider reads console secrets from Azure Key Vault.
type KeyVaultProvider struct {
	client SecretGetter
}

// NewKeyVaultProvider authenticates with the default Azure credential chain.
func NewKeyVaultProvider(vaultURL string) (*KeyVaultProvider, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("create key vault client: %w", err)
	}
	return NewProvider(client), nil
}

// NewProvider wraps an existing client.
func NewProvider(client SecretGetter) *KeyVaultProvider {
	return &KeyVaultProvider{client: client}
}

// Get fetches the latest version of key. Env style names map to vault names (SESSION_SEAL_KEY -> SESSION-SEAL-KEY).
func (p *KeyVaultProvider) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	name := vaultName(key)
	resp, err := p.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}

// Apply fills secrets missing from the environment. Values already set in cfg win.
func (p *KeyVaultProvider) Apply(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	targets := []struct {
		key string
		dst *string
	}{
		{"SESSION_SEAL_KEY", &cfg.Session.SealKey},
		{"AUTH_JWT_VERIFY_SECRET", &cfg.Auth.JWTVerifySecret},
	}

	for _, target := range targets {
		if *target.dst != "" {
			continue
		}
		val, err := p.Get(ctx, target.key)
		if err != nil {
			logger.Warn("secret not loaded from key vault", zap.String("key", target.key), zap.Error(err))
			continue
		}
		*target.dst = strings.TrimSpace(val)
		logger.Info("secret loaded from key vault", zap.String("key", target.key))
	}
	return cfg.Validate()
}

func vaultName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
