package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/bff-auth/auth"
	"github.com/jrsteele09/bff-auth/idp"
	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
	"github.com/jrsteele09/bff-auth/store"
	"github.com/jrsteele09/bff-auth/store/storetest"
)

// startLogin runs Login and returns the request the browser would send back on success.
func startLogin(t *testing.T, f *testFixture) auth.CallbackRequest {
	t.Helper()
	resp, err := f.service.Login(context.Background(), auth.LoginRequest{})
	require.NoError(t, err)
	temp, err := f.tempRepo().Get(context.Background(), resp.TempSessionID)
	require.NoError(t, err)
	f.rec.Reset()
	return auth.CallbackRequest{Code: "abc", State: temp.State, TempSessionID: resp.TempSessionID}
}

func tenantTokens(t *testing.T, tenantID string, expiresIn int64) *idp.TokenResponse {
	return &idp.TokenResponse{
		AccessToken:  "at1",
		IDToken:      makeJWT(t, jwt.MapClaims{"tid": tenantID, "sub": "user-1", "email": "a@acme.test"}),
		RefreshToken: "rt1",
		ExpiresIn:    expiresIn,
	}
}

func TestCallback_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(f *testFixture, req *auth.CallbackRequest)
	}{
		{"missing code", func(_ *testFixture, req *auth.CallbackRequest) { req.Code = "" }},
		{"missing state", func(_ *testFixture, req *auth.CallbackRequest) { req.State = "" }},
		{"missing temp session cookie", func(_ *testFixture, req *auth.CallbackRequest) { req.TempSessionID = "" }},
		{"unknown temp session", func(_ *testFixture, req *auth.CallbackRequest) { req.TempSessionID = "forged" }},
		{"state mismatch", func(_ *testFixture, req *auth.CallbackRequest) { req.State = "attacker-state" }},
		{"expired temp session", func(f *testFixture, _ *auth.CallbackRequest) { f.now = f.now.Add(601 * time.Second) }},
		{"identity provider error", func(_ *testFixture, req *auth.CallbackRequest) { req.Error = "access_denied" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.provider.exchangeResp = tenantTokens(t, testTenantID, 3600)
			req := startLogin(t, f)
			tt.mutate(f, &req)

			resp, err := f.service.Callback(ctx, req)
			require.Nil(t, resp)
			require.ErrorIs(t, err, apperrors.ErrInvalidCallback)

			require.Equal(t, 0, f.provider.exchangeCalls)
			require.Empty(t, f.onboarder.calls)
			require.Equal(t, 0, f.rec.Count(storetest.OpPut))
			require.Equal(t, 0, f.rec.Count(storetest.OpDelete))
		})
	}

	t.Run("missing and mismatched sessions are indistinguishable", func(t *testing.T) {
		f := setupTestFixture(t)
		req := startLogin(t, f)

		mismatch := req
		mismatch.State = "wrong"
		_, errMismatch := f.service.Callback(ctx, mismatch)

		missing := req
		missing.TempSessionID = "nope"
		_, errMissing := f.service.Callback(ctx, missing)

		require.Equal(t, errMismatch.Error(), errMissing.Error())
	})
}

func TestCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = tenantTokens(t, testTenantID, 1800)
		req := startLogin(t, f)
		temp, err := f.tempRepo().Get(ctx, req.TempSessionID)
		require.NoError(t, err)

		resp, err := f.service.Callback(ctx, req)
		require.NoError(t, err)

		require.Equal(t, "abc", f.provider.lastCode)
		require.Equal(t, temp.CodeVerifier, f.provider.lastVerifier)
		require.Equal(t, temp.Nonce, f.provider.lastNonce)
		require.Equal(t, []string{testTenantID}, f.onboarder.calls)

		require.Equal(t, "/", resp.RedirectURL)
		require.Equal(t, testTenantID, resp.TenantID)
		require.Equal(t, 1800, resp.MaxAge)
		require.Equal(t, testTenantID+":"+resp.SessionID, resp.SessionCookie)

		session, err := f.sessionRepo().Get(ctx, testTenantID, resp.SessionID)
		require.NoError(t, err)
		require.Equal(t, testAppID, session.AppID)
		require.Equal(t, "at1", session.AccessToken)
		require.Equal(t, "rt1", session.RefreshToken)
		require.Equal(t, testNow.Unix()+1800, session.ExpiresAt)

		// The temp session is consumed
		_, err = f.tempRepo().Get(ctx, req.TempSessionID)
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		_, err = f.service.Callback(ctx, req)
		require.ErrorIs(t, err, apperrors.ErrInvalidCallback)
	})

	t.Run("default expiry when expires_in is omitted", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = tenantTokens(t, testTenantID, 0)
		resp, err := f.service.Callback(ctx, startLogin(t, f))
		require.NoError(t, err)
		require.Equal(t, 3600, resp.MaxAge)
	})

	t.Run("tenant_id claim fallback", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = &idp.TokenResponse{
			AccessToken: "at1",
			IDToken:     makeJWT(t, jwt.MapClaims{"tenant_id": "t-fallback"}),
		}
		resp, err := f.service.Callback(ctx, startLogin(t, f))
		require.NoError(t, err)
		require.Equal(t, "t-fallback", resp.TenantID)
	})

	t.Run("exchange failure writes no session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeErr = errors.Join(apperrors.ErrTokenExchange, errors.New("502 bad gateway"))
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrTokenExchange)
		require.NotErrorIs(t, err, apperrors.ErrInvalidCallback)
		require.Equal(t, 0, f.sessionWrites())
		require.Empty(t, f.onboarder.calls)
	})

	t.Run("id token verification failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = tenantTokens(t, testTenantID, 3600)
		f.provider.verifyErr = errors.New("bad signature")
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrTokenExchange)
		require.Equal(t, 0, f.sessionWrites())
	})

	t.Run("missing tenant claim", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = &idp.TokenResponse{
			AccessToken: "at1",
			IDToken:     makeJWT(t, jwt.MapClaims{"sub": "user-1"}),
		}
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrMissingTenantClaim)
		require.Empty(t, f.onboarder.calls)
		require.Equal(t, 0, f.sessionWrites())
	})

	t.Run("missing id token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = &idp.TokenResponse{AccessToken: "at1"}
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrMissingTenantClaim)
	})

	t.Run("tenant id with reserved characters", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = tenantTokens(t, "evil:tenant", 3600)
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrMissingTenantClaim)
		require.Equal(t, 0, f.sessionWrites())
	})

	t.Run("onboarding failure writes no session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeResp = tenantTokens(t, testTenantID, 3600)
		f.onboarder.err = apperrors.ErrInvariantMismatch
		_, err := f.service.Callback(ctx, startLogin(t, f))
		require.ErrorIs(t, err, apperrors.ErrOnboarding)
		require.ErrorIs(t, err, apperrors.ErrInvariantMismatch)
		require.Equal(t, 0, f.sessionWrites())
		for _, c := range f.rec.Calls() {
			require.False(t, strings.HasPrefix(c.Key.PK, store.TenantScope(testAppID, "")))
		}
	})
}
