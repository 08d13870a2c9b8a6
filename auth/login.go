package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/bff-auth/internal/metrics"
	"github.com/jrsteele09/bff-auth/sessions"
)

// LoginRequest carries no inputs; everything comes from configuration.
type LoginRequest struct{}

type LoginResponse struct {
	// RedirectURL is the IdP authorization endpoint with the PKCE protected query.
	RedirectURL string
	// TempSessionID is the only value handed to the browser before authentication.
	TempSessionID string
	// MaxAge is the temp cookie lifetime in seconds.
	MaxAge int
}

// Login starts an authorization code flow. It stores state, nonce and the PKCE verifier
// server side under a fresh temp session id and returns the redirect to the IdP.
func (s *Service) Login(ctx context.Context, _ LoginRequest) (*LoginResponse, error) {
	state, err := RandomToken(randomTokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] state")
	}
	nonce, err := RandomToken(randomTokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] nonce")
	}
	pkce := NewPKCE()

	now := s.nowTime()
	temp := &sessions.TempSession{
		SessionID:    s.newID(),
		State:        state,
		Nonce:        nonce,
		CodeVerifier: pkce.Verifier,
		ExpiresAt:    now.Add(s.settings.TempSessionTTL).Unix(),
		CreatedAt:    now.Unix(),
	}
	if err := s.tempSessions.Create(ctx, temp); err != nil {
		return nil, errors.Wrap(err, "[Login] failed to store temp session")
	}

	metrics.LoginsStarted.Inc()
	log.Debug().Str("temp_session_id", temp.SessionID).Msg("login started")

	return &LoginResponse{
		RedirectURL:   s.provider.AuthCodeURL(state, nonce, pkce.Challenge),
		TempSessionID: temp.SessionID,
		MaxAge:        seconds(s.settings.TempSessionTTL),
	}, nil
}
