// Package secrets resolves secret references (such as the OIDC client secret) to values.
package secrets

import (
	"context"
	"fmt"
)

// Provider describes a type which can resolve a secret reference.
// An empty reference resolves to the empty string without error so that
// public clients can run without any secret configured.
type Provider interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// ProviderType names a secret backend.
type ProviderType string

const (
	AWSType         ProviderType = "aws"
	EnvironmentType ProviderType = "env"
	NoneType        ProviderType = "none"
)

// NewProvider creates the provider named by providerType.
func NewProvider(ctx context.Context, providerType ProviderType, region string) (Provider, error) {
	switch providerType {
	case AWSType:
		return NewAWSProvider(ctx, region)
	case EnvironmentType:
		return NewEnvironmentProvider(), nil
	case NoneType:
		return NoneProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown secret provider: %q", providerType)
	}
}
