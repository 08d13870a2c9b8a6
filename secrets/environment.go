package secrets

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
)

// EnvironmentProvider treats the reference as an environment variable name.
type EnvironmentProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvironmentProvider reads secrets from the process environment.
func NewEnvironmentProvider() *EnvironmentProvider {
	return &EnvironmentProvider{lookup: os.LookupEnv}
}

func (e *EnvironmentProvider) GetSecret(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	value, ok := e.lookup(ref)
	if !ok {
		return "", fmt.Errorf("[EnvironmentProvider] %s: %w", ref, apperrors.ErrSecretNotFound)
	}
	return value, nil
}

// NoneProvider resolves every reference to the empty string.
type NoneProvider struct{}

func (NoneProvider) GetSecret(context.Context, string) (string, error) {
	return "", nil
}
