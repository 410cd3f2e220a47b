// Package secrets resolves named secrets such as the document store
// connection string.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// ErrNotFound is returned when no resolver knows the secret.
var ErrNotFound = errors.New("secret not found")

// Resolver looks up a secret value by name.
type Resolver interface {
	Secret(ctx context.Context, name string) (string, error)
}

// KeyVault reads secrets from an Azure Key Vault using the default
// credential chain (environment, managed identity, az CLI).
type KeyVault struct {
	client *azsecrets.Client
}

// NewKeyVault creates a client for https://<vaultName>.vault.azure.net/.
func NewKeyVault(vaultName string) (*KeyVault, error) {
	if vaultName == "" {
		return nil, errors.New("key vault name is empty")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(VaultURL(vaultName), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("key vault client: %w", err)
	}
	return &KeyVault{client: client}, nil
}

// VaultURL returns the endpoint of a named vault.
func VaultURL(vaultName string) string {
	return fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
}

// Secret fetches the latest version of name.
func (k *KeyVault) Secret(ctx context.Context, name string) (string, error) {
	resp, err := k.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var re *azcore.ResponseError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("%w: %s has no value", ErrNotFound, name)
	}
	return *resp.Value, nil
}

// Static serves secrets from a fixed map.
type Static map[string]string

func (s Static) Secret(_ context.Context, name string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Env serves secrets from environment variables. The name is upper-cased
// and every character outside [A-Z0-9] becomes '_', so
// "cosmos-connection-string" reads COSMOS_CONNECTION_STRING.
type Env struct{}

func (Env) Secret(_ context.Context, name string) (string, error) {
	key := EnvKey(name)
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: $%s", ErrNotFound, key)
}

// EnvKey maps a secret name to its environment variable.
func EnvKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// Chain tries each resolver in order and returns the first value found.
// Errors other than ErrNotFound stop the search.
type Chain []Resolver

func (c Chain) Secret(ctx context.Context, name string) (string, error) {
	for _, r := range c {
		v, err := r.Secret(ctx, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
