package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/bff-auth/auth"
	"github.com/jrsteele09/bff-auth/idp"
	"github.com/jrsteele09/bff-auth/internal/config"
	"github.com/jrsteele09/bff-auth/secrets"
	"github.com/jrsteele09/bff-auth/server"
	"github.com/jrsteele09/bff-auth/store"
	"github.com/jrsteele09/bff-auth/tenants"
)

// app owns the process lifetime of the store connection.
type app struct {
	server *server.Server
	close  func()
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	if c.GetAppID() == "" || c.GetClientID() == "" || c.GetIssuer() == "" || c.GetRedirectURI() == "" {
		return nil, errors.New("[newApp] APP_ID, CLIENT_ID, ISSUER and REDIRECT_URI are required")
	}

	kv, closeStore, err := store.Open(ctx, store.Options{
		Backend:        c.GetSessionStore(),
		Table:          c.GetSessionTable(),
		RedisURL:       c.GetRedisURL(),
		RedisKeyPrefix: c.GetRedisKeyPrefix(),
		RedisRetention: c.GetRedisRetention(),
		DatabaseURL:    c.GetDatabaseURL(),
		AWSRegion:      c.GetAWSRegion(),
	})
	if err != nil {
		return nil, fmt.Errorf("[newApp] session store: %w", err)
	}
	log.Info().Str("backend", c.GetSessionStore()).Msg("session store ready")

	secretProvider, err := secrets.NewProvider(ctx, secrets.ProviderType(c.GetSecretProvider()), c.GetAWSRegion())
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("[newApp] secret provider: %w", err)
	}

	var providerOpts []idp.ProviderOption
	if c.GetVerifyIDToken() {
		verifier, err := idp.NewIDTokenVerifier(ctx, c.GetIssuer(), c.GetClientID())
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("[newApp] %w", err)
		}
		providerOpts = append(providerOpts, idp.WithIDTokenVerifier(verifier))
	}
	provider := idp.NewOAuth2Provider(c, secretProvider, providerOpts...)

	onboarder, err := tenants.NewOnboarder(kv, c.GetAppID(), c.GetBaselinePolicyIDs())
	if err != nil {
		closeStore()
		return nil, err
	}

	authService, err := auth.NewService(auth.Settings{
		AppID:              c.GetAppID(),
		PostLoginRedirect:  c.GetPostLoginRedirect(),
		TempSessionTTL:     c.GetTempSessionTTL(),
		RefreshWindow:      c.GetRefreshWindow(),
		DefaultTokenExpiry: c.GetDefaultTokenExpiry(),
	}, kv, provider, onboarder)
	if err != nil {
		closeStore()
		return nil, err
	}

	srv, err := server.New(c, authService)
	if err != nil {
		closeStore()
		return nil, err
	}
	return &app{server: srv, close: closeStore}, nil
}
