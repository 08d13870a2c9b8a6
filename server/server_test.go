package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/bff-auth/auth"
	"github.com/jrsteele09/bff-auth/idp"
	"github.com/jrsteele09/bff-auth/internal/config"
	"github.com/jrsteele09/bff-auth/server"
	"github.com/jrsteele09/bff-auth/store"
	"github.com/jrsteele09/bff-auth/tenants"
)

type stubProvider struct {
	tokens      *idp.TokenResponse
	exchangeErr error
}

func (p *stubProvider) AuthCodeURL(state, nonce, codeChallenge string) string {
	return "https://idp.example.com/authorize?" + url.Values{
		"state":                 {state},
		"nonce":                 {nonce},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}.Encode()
}

func (p *stubProvider) Exchange(context.Context, string, string) (*idp.TokenResponse, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.tokens, nil
}

func (p *stubProvider) Refresh(context.Context, string) (*idp.TokenResponse, error) {
	return nil, errors.New("refresh not expected")
}

func (p *stubProvider) VerifyIDToken(context.Context, string, string) error {
	return nil
}

func newTestServer(t *testing.T, provider *stubProvider) *server.Server {
	t.Helper()
	mem := store.NewMemory()
	onboarder, err := tenants.NewOnboarder(mem, "acme", []string{"agent-invoke"})
	require.NoError(t, err)
	svc, err := auth.NewService(auth.Settings{AppID: "acme"}, mem, provider, onboarder)
	require.NoError(t, err)
	srv, err := server.New(config.EnvVars{}, svc)
	require.NoError(t, err)
	return srv
}

func idTokenFor(t *testing.T, tenantID string) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"tid": tenantID, "sub": "user-1", "email": "a@acme.test"}).
		SignedString([]byte("k"))
	require.NoError(t, err)
	return signed
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login runs /auth/login and returns the temp cookie and the state from the IdP redirect.
func login(t *testing.T, srv http.Handler) (*http.Cookie, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteAuthLogin, nil))
	require.Equal(t, http.StatusFound, rr.Code)

	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	temp := findCookie(rr.Result().Cookies(), auth.TempSessionCookieName)
	require.NotNil(t, temp)
	return temp, location.Query().Get("state")
}

func callbackRequest(state string, temp *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?"+url.Values{"code": {"abc"}, "state": {state}}.Encode(), nil)
	if temp != nil {
		req.AddCookie(temp)
	}
	return req
}

func TestLoginHandler(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteAuthLogin, nil))

	require.Equal(t, http.StatusFound, rr.Code)
	require.Contains(t, rr.Header().Get("Location"), "code_challenge_method=S256")
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	setCookie := rr.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(setCookie, "temp_session_id="))
	require.Contains(t, setCookie, "Max-Age=600")
	require.Contains(t, setCookie, "HttpOnly")
	require.Contains(t, setCookie, "Secure")
	require.Contains(t, setCookie, "SameSite=Strict")
	require.Contains(t, setCookie, "Path=/")
}

func TestCallbackHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{tokens: &idp.TokenResponse{AccessToken: "at1", IDToken: idTokenFor(t, "tenant-123"), ExpiresIn: 3600}})
		temp, state := login(t, srv)

		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, callbackRequest(state, temp))
		require.Equal(t, http.StatusFound, rr.Code)
		require.Equal(t, "/", rr.Header().Get("Location"))

		cookies := rr.Result().Cookies()
		session := findCookie(cookies, auth.SessionCookieName)
		require.NotNil(t, session)
		require.True(t, strings.HasPrefix(session.Value, "tenant-123:"))
		require.Equal(t, 3600, session.MaxAge)
		require.True(t, session.HttpOnly)
		require.True(t, session.Secure)
		require.Equal(t, http.SameSiteStrictMode, session.SameSite)

		expired := findCookie(cookies, auth.TempSessionCookieName)
		require.NotNil(t, expired)
		require.Equal(t, -1, expired.MaxAge)
		require.Contains(t, strings.Join(rr.Header().Values("Set-Cookie"), "\n"), "temp_session_id=; Path=/; Max-Age=0")
	})

	t.Run("missing temp cookie is a bad request", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{})
		_, state := login(t, srv)

		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, callbackRequest(state, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Empty(t, rr.Header().Values("Set-Cookie"))
	})

	t.Run("state mismatch is a bad request", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{})
		temp, _ := login(t, srv)

		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, callbackRequest("forged", temp))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("identity provider error", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{})
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?error=access_denied", nil))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("exchange failure is a generic server error", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{exchangeErr: errors.New("upstream said: secret-detail")})
		temp, state := login(t, srv)

		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, callbackRequest(state, temp))
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		require.NotContains(t, rr.Body.String(), "secret-detail")
		require.Nil(t, findCookie(rr.Result().Cookies(), auth.SessionCookieName))
	})
}

func TestSessionRoute(t *testing.T) {
	srv := newTestServer(t, &stubProvider{tokens: &idp.TokenResponse{AccessToken: "at1", IDToken: idTokenFor(t, "tenant-123"), ExpiresIn: 3600}})

	t.Run("without a session", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteAPISession, nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("forged session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, server.RouteAPISession, nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tenant-123:forged"})
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("after login", func(t *testing.T) {
		temp, state := login(t, srv)
		cb := httptest.NewRecorder()
		srv.ServeHTTP(cb, callbackRequest(state, temp))
		session := findCookie(cb.Result().Cookies(), auth.SessionCookieName)
		require.NotNil(t, session)

		req := httptest.NewRequest(http.MethodGet, server.RouteAPISession, nil)
		req.AddCookie(session)
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotContains(t, rr.Body.String(), "at1")

		var info server.SessionInfo
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&info))
		require.Equal(t, "tenant-123", info.TenantID)
		require.Equal(t, "acme", info.AppID)
		require.Equal(t, "user-1", info.PrincipalSub)
		require.Equal(t, "a@acme.test", info.PrincipalEmail)
		require.Equal(t, strings.TrimPrefix(session.Value, "tenant-123:"), info.SessionID)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "bff_logins_started_total")
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	h := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) { panic("boom") }, srv.RecoverMiddleware)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
