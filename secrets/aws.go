package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
)

// SecretsManagerClient defines the Secrets Manager operations used, enabling mock injection for testing.
type SecretsManagerClient interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider resolves references (ARNs or names) through AWS Secrets Manager.
type AWSProvider struct {
	client SecretsManagerClient
}

// NewAWSProvider creates a provider using the default AWS credential chain.
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSProviderWithClient(secretsmanager.NewFromConfig(cfg)), nil
}

// NewAWSProviderWithClient wraps a pre-configured client.
func NewAWSProviderWithClient(client SecretsManagerClient) *AWSProvider {
	return &AWSProvider{client: client}
}

func (p *AWSProvider) GetSecret(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return "", fmt.Errorf("[AWSProvider] get secret value: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("[AWSProvider] %s has no string value: %w", ref, apperrors.ErrSecretNotFound)
	}
	return aws.ToString(out.SecretString), nil
}
