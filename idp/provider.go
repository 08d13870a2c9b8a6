// Package idp talks to the upstream OpenID Connect identity provider: it builds the
// authorization redirect and performs the authorization_code and refresh_token grants.
package idp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/bff-auth/internal/config"
	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
	"github.com/jrsteele09/bff-auth/secrets"
)

// PKCEChallengeMethodS256 is the PKCE challenge method using SHA-256 (RFC 7636).
const PKCEChallengeMethodS256 = "S256"

// Provider is the identity provider as seen by the login, callback and authorizer paths.
type Provider interface {
	// AuthCodeURL returns the authorization endpoint URL for a PKCE protected code flow.
	AuthCodeURL(state, nonce, codeChallenge string) string

	// Exchange performs the authorization_code grant with the server-held PKCE verifier.
	Exchange(ctx context.Context, code, codeVerifier string) (*TokenResponse, error)

	// Refresh performs the refresh_token grant.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// VerifyIDToken checks the ID token signature and nonce when verification is configured.
	// It is a no-op otherwise.
	VerifyIDToken(ctx context.Context, rawIDToken, nonce string) error
}

var _ Provider = (*OAuth2Provider)(nil)

// OAuth2Provider implements Provider with golang.org/x/oauth2 against static endpoints.
type OAuth2Provider struct {
	cfg        config.OIDCConfig
	secrets    secrets.Provider
	httpClient *http.Client
	verifier   *oidc.IDTokenVerifier
}

// ProviderOption configures an OAuth2Provider.
type ProviderOption func(*OAuth2Provider)

// WithHTTPClient sets the HTTP client used for token endpoint calls.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OAuth2Provider) {
		p.httpClient = c
	}
}

// WithIDTokenVerifier enables ID token signature verification at callback time.
func WithIDTokenVerifier(v *oidc.IDTokenVerifier) ProviderOption {
	return func(p *OAuth2Provider) {
		p.verifier = v
	}
}

// NewOAuth2Provider creates the provider. The client secret is resolved through sp on every grant.
func NewOAuth2Provider(cfg config.OIDCConfig, sp secrets.Provider, options ...ProviderOption) *OAuth2Provider {
	p := &OAuth2Provider{
		cfg:        cfg,
		secrets:    sp,
		httpClient: &http.Client{Timeout: cfg.GetIdPHTTPTimeout()},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// NewIDTokenVerifier discovers the issuer's signing keys for ID token verification.
func NewIDTokenVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
}

func (p *OAuth2Provider) oauth2Config(clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.cfg.GetClientID(),
		ClientSecret: clientSecret,
		RedirectURL:  p.cfg.GetRedirectURI(),
		Scopes:       p.cfg.GetScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.cfg.GetAuthorizationEndpoint(),
			TokenURL:  p.cfg.GetTokenEndpoint(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// grantConfig resolves the client secret and binds the HTTP client to ctx.
func (p *OAuth2Provider) grantConfig(ctx context.Context) (context.Context, *oauth2.Config, error) {
	secret, err := p.secrets.GetSecret(ctx, p.cfg.GetClientSecretRef())
	if err != nil {
		return nil, nil, fmt.Errorf("[OAuth2Provider] resolve client secret: %w", err)
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), p.oauth2Config(secret), nil
}

func (p *OAuth2Provider) AuthCodeURL(state, nonce, codeChallenge string) string {
	return p.oauth2Config("").AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", PKCEChallengeMethodS256),
	)
}

func (p *OAuth2Provider) Exchange(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	ctx, cfg, err := p.grantConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExchange, err)
	}
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExchange, err)
	}
	return fromOAuth2Token(tok), nil
}

func (p *OAuth2Provider) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", apperrors.ErrTokenRefresh)
	}
	ctx, cfg, err := p.grantConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenRefresh, err)
	}

	// An empty access token forces the token source to run the refresh grant
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenRefresh, err)
	}
	return fromOAuth2Token(tok), nil
}

func (p *OAuth2Provider) VerifyIDToken(ctx context.Context, rawIDToken, nonce string) error {
	if p.verifier == nil {
		return nil
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("%w: ID token verification failed: %w", apperrors.ErrInvalidToken, err)
	}
	if idToken.Nonce != nonce {
		return fmt.Errorf("%w: nonce mismatch", apperrors.ErrInvalidToken)
	}
	return nil
}

func fromOAuth2Token(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	if resp.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	return resp
}
