// Package sessions holds the two session records of the login flow and their repositories.
package sessions

import (
	"strings"
	"time"
)

// TempSession stores the login flow state between /auth/login and /auth/callback.
// It is short-lived and consumed exactly once.
type TempSession struct {
	SessionID    string `json:"session_id"`
	State        string `json:"state"`
	Nonce        string `json:"nonce"`
	CodeVerifier string `json:"code_verifier"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
	CreatedAt    int64  `json:"created_at"`
}

// Expired reports whether the record is past its expiry at now.
func (t *TempSession) Expired(now time.Time) bool {
	return t.ExpiresAt <= now.Unix()
}

// Session is an authenticated proxy session. The browser only ever sees its cookie form
// "<tenantId>:<sessionId>"; the IdP tokens stay server side.
type Session struct {
	TenantID     string `json:"tenant_id"`
	AppID        string `json:"app_id"`
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
	CreatedAt    int64  `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}

// ExpiresWithin reports whether the access token expires within window of now (or already has).
func (s *Session) ExpiresWithin(now time.Time, window time.Duration) bool {
	return s.ExpiresAt-now.Unix() <= int64(window/time.Second)
}

// CookieValue renders the session cookie value.
func CookieValue(tenantID, sessionID string) string {
	return tenantID + ":" + sessionID
}

// ParseCookieValue splits a session cookie value. It requires exactly one ':' with
// non-empty parts on both sides.
func ParseCookieValue(v string) (tenantID, sessionID string, ok bool) {
	if strings.Count(v, ":") != 1 {
		return "", "", false
	}
	tenantID, sessionID, _ = strings.Cut(v, ":")
	if tenantID == "" || sessionID == "" {
		return "", "", false
	}
	return tenantID, sessionID, true
}
