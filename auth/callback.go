package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
	"github.com/jrsteele09/bff-auth/internal/metrics"
	"github.com/jrsteele09/bff-auth/sessions"
	"github.com/jrsteele09/bff-auth/tenants"
	"github.com/jrsteele09/bff-auth/token"
)

// errLoginSession is shared by the missing, expired and state mismatch cases so a caller
// cannot tell them apart.
var errLoginSession = fmt.Errorf("%w: invalid or expired login session", apperrors.ErrInvalidCallback)

// CallbackRequest is the IdP redirect back to the application.
type CallbackRequest struct {
	Code  string
	State string

	// Error is the IdP's error parameter when the user or the IdP aborted the flow.
	Error            string
	ErrorDescription string

	// TempSessionID comes from the temp session cookie.
	TempSessionID string
}

type CallbackResponse struct {
	RedirectURL string
	TenantID    string
	SessionID   string
	// SessionCookie is the composite "<tenantId>:<sessionId>" cookie value.
	SessionCookie string
	// MaxAge is the session cookie lifetime in seconds, equal to the access token lifetime.
	MaxAge int
}

// Callback completes the login: it validates the temp session, exchanges the code with the
// PKCE verifier, onboards the tenant and writes the permanent session.
//
// Validation failures wrap ErrInvalidCallback and have no side effects. Exchange, claim and
// onboarding failures wrap ErrTokenExchange, ErrMissingTenantClaim and ErrOnboarding; no
// permanent session is written for any of them.
func (s *Service) Callback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error) {
	resp, err := s.callback(ctx, req)
	metrics.CallbackOutcomes.WithLabelValues(callbackOutcome(err)).Inc()
	return resp, err
}

func (s *Service) callback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error) {
	if req.Error != "" {
		return nil, fmt.Errorf("%w: identity provider returned %s", apperrors.ErrInvalidCallback, req.Error)
	}
	if req.Code == "" || req.State == "" {
		return nil, fmt.Errorf("%w: missing code or state", apperrors.ErrInvalidCallback)
	}
	if req.TempSessionID == "" {
		return nil, fmt.Errorf("%w: missing temp session cookie", apperrors.ErrInvalidCallback)
	}

	temp, err := s.tempSessions.Get(ctx, req.TempSessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil, errLoginSession
		}
		return nil, fmt.Errorf("[Callback] %w", err)
	}
	now := s.nowTime()
	if temp.Expired(now) {
		return nil, errLoginSession
	}
	if subtle.ConstantTimeCompare([]byte(temp.State), []byte(req.State)) != 1 {
		return nil, errLoginSession
	}

	tokens, err := s.provider.Exchange(ctx, req.Code, temp.CodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("[Callback] %w", err)
	}
	if tokens.IDToken == "" {
		return nil, fmt.Errorf("[Callback] %w: %w", apperrors.ErrMissingTenantClaim, apperrors.ErrIDTokenMissing)
	}
	if err := s.provider.VerifyIDToken(ctx, tokens.IDToken, temp.Nonce); err != nil {
		return nil, fmt.Errorf("[Callback] %w: %w", apperrors.ErrTokenExchange, err)
	}

	claims, err := token.ParseUnverified(tokens.IDToken)
	if err != nil {
		return nil, fmt.Errorf("[Callback] %w: %w", apperrors.ErrMissingTenantClaim, err)
	}
	tenantID := claims.TenantID()
	if err := tenants.ValidateID(tenantID); err != nil {
		return nil, fmt.Errorf("[Callback] %w: %w", apperrors.ErrMissingTenantClaim, err)
	}

	if err := s.onboarder.Onboard(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("[Callback] %w: %w", apperrors.ErrOnboarding, err)
	}

	if err := s.tempSessions.Delete(ctx, temp.SessionID); err != nil {
		return nil, fmt.Errorf("[Callback] %w", err)
	}

	expiresIn := tokens.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int64(seconds(s.settings.DefaultTokenExpiry))
	}
	session := &sessions.Session{
		TenantID:     tenantID,
		AppID:        s.settings.AppID,
		SessionID:    s.newID(),
		AccessToken:  tokens.AccessToken,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    now.Unix() + expiresIn,
		CreatedAt:    now.Unix(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("[Callback] %w", err)
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("session_id", session.SessionID).
		Str("principal_sub", claims.Subject()).
		Msg("session created")

	return &CallbackResponse{
		RedirectURL:   s.settings.PostLoginRedirect,
		TenantID:      tenantID,
		SessionID:     session.SessionID,
		SessionCookie: sessions.CookieValue(tenantID, session.SessionID),
		MaxAge:        int(expiresIn),
	}, nil
}

func callbackOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidCallback):
		return "invalid"
	case errors.Is(err, apperrors.ErrTokenExchange):
		return "exchange_failed"
	case errors.Is(err, apperrors.ErrMissingTenantClaim):
		return "missing_tenant"
	case errors.Is(err, apperrors.ErrOnboarding):
		return "onboarding_failed"
	default:
		return "error"
	}
}
