package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/bff-auth/internal/metrics"
	"github.com/jrsteele09/bff-auth/sessions"
	"github.com/jrsteele09/bff-auth/token"
)

const (
	SessionCookieName     = "session_id"
	TempSessionCookieName = "temp_session_id"

	EffectAllow = "Allow"
	EffectDeny  = "Deny"

	denyPrincipal = "user"
)

// AuthorizerRequest is what the router hands to the authorizer for each protected request.
type AuthorizerRequest struct {
	// Headers are matched case-insensitively.
	Headers map[string]string
}

// PolicyContext is forwarded to the downstream proxy on Allow.
type PolicyContext struct {
	AccessToken    string `json:"access_token"`
	SessionID      string `json:"session_id"`
	TenantID       string `json:"tenant_id"`
	AppID          string `json:"app_id"`
	PrincipalSub   string `json:"principal_sub,omitempty"`
	PrincipalEmail string `json:"principal_email,omitempty"`
}

// AuthorizerResponse is the policy decision. Context is nil on Deny.
type AuthorizerResponse struct {
	Effect      string
	PrincipalID string
	Context     *PolicyContext
}

func (r AuthorizerResponse) Allowed() bool {
	return r.Effect == EffectAllow
}

func deny() AuthorizerResponse {
	return AuthorizerResponse{Effect: EffectDeny, PrincipalID: denyPrincipal}
}

// Authorize decides whether the request's session cookie names a live session bound to the
// tenant it claims. It refreshes the access token when it is close to expiry. Every failure,
// including store and IdP errors, is a Deny.
func (s *Service) Authorize(ctx context.Context, req AuthorizerRequest) AuthorizerResponse {
	pc, reason := s.authorize(ctx, req)
	if pc == nil {
		metrics.AuthorizerDecisions.WithLabelValues(EffectDeny, reason).Inc()
		log.Debug().Str("reason", reason).Msg("authorizer deny")
		return deny()
	}
	metrics.AuthorizerDecisions.WithLabelValues(EffectAllow, reason).Inc()
	return AuthorizerResponse{Effect: EffectAllow, PrincipalID: pc.SessionID, Context: pc}
}

func (s *Service) authorize(ctx context.Context, req AuthorizerRequest) (*PolicyContext, string) {
	cookieHeader := headerValue(req.Headers, "Cookie")
	if cookieHeader == "" {
		return nil, "no_cookie"
	}
	raw := cookieValue(cookieHeader, SessionCookieName)
	if raw == "" {
		return nil, "no_session_cookie"
	}
	tenantID, sessionID, ok := sessions.ParseCookieValue(raw)
	if !ok {
		return nil, "malformed_cookie"
	}

	session, err := s.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		log.Debug().Err(err).Str("tenant_id", tenantID).Msg("session lookup failed")
		return nil, "not_found"
	}
	if session.TenantID != tenantID || session.AppID != s.settings.AppID || session.SessionID != sessionID {
		log.Warn().Str("tenant_id", tenantID).Str("session_id", sessionID).Msg("session record does not match its key")
		return nil, "record_mismatch"
	}

	claims, ok := token.ScopeClaims(session.IDToken, session.AccessToken)
	if !ok || claims.TenantID() != tenantID {
		log.Warn().Str("tenant_id", tenantID).Str("session_id", sessionID).Msg("token tenant claim does not match session")
		return nil, "claim_mismatch"
	}

	now := s.nowTime()
	reason := "valid"
	if session.ExpiresWithin(now, s.settings.RefreshWindow) && session.RefreshToken != "" {
		if err := s.refresh(ctx, session); err != nil {
			metrics.TokenRefreshes.WithLabelValues("failure").Inc()
			log.Warn().Err(err).Str("tenant_id", tenantID).Str("session_id", sessionID).Msg("token refresh failed")
		} else {
			metrics.TokenRefreshes.WithLabelValues("success").Inc()
			reason = "refreshed"
		}
	}
	if session.Expired(now) {
		return nil, "expired"
	}

	return &PolicyContext{
		AccessToken:    session.AccessToken,
		SessionID:      sessionID,
		TenantID:       tenantID,
		AppID:          s.settings.AppID,
		PrincipalSub:   claims.Subject(),
		PrincipalEmail: claims.Email(),
	}, reason
}

// refresh runs the refresh grant and writes the new token set back in place. session is only
// modified once the store update has succeeded.
func (s *Service) refresh(ctx context.Context, session *sessions.Session) error {
	tokens, err := s.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return err
	}
	expiresIn := tokens.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int64(seconds(s.settings.DefaultTokenExpiry))
	}
	expiresAt := s.nowTime().Unix() + expiresIn

	if err := s.sessions.UpdateTokens(ctx, session.TenantID, session.SessionID, tokens.AccessToken, tokens.RefreshToken, expiresAt); err != nil {
		return err
	}
	session.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		session.RefreshToken = tokens.RefreshToken
	}
	session.ExpiresAt = expiresAt
	return nil
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// cookieValue returns the named cookie from a Cookie header, skipping malformed pairs.
func cookieValue(header, name string) string {
	r := http.Request{Header: http.Header{"Cookie": {header}}}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
