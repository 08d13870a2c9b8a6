package config

import (
	"strings"
	"time"

	"github.com/jrsteele09/bff-auth/internal/utils"
)

// OIDCConfig describes the upstream identity provider and this application's client registration.
type OIDCConfig interface {
	GetAppID() string
	GetClientID() string
	GetClientSecretRef() string
	GetRedirectURI() string
	GetIssuer() string
	GetAuthorizationEndpoint() string
	GetTokenEndpoint() string
	GetScopes() []string
	GetVerifyIDToken() bool
	GetPostLoginRedirect() string
	GetIdPHTTPTimeout() time.Duration
	GetBaselinePolicyIDs() []string
}

type OIDC struct{}

var _ OIDCConfig = OIDC{}

func (OIDC) GetAppID() string {
	return GetEnv("APP_ID", "")
}

func (OIDC) GetClientID() string {
	return GetEnv("CLIENT_ID", "")
}

// GetClientSecretRef is a secret store reference (e.g. a Secrets Manager ARN).
// Empty means a public client.
func (OIDC) GetClientSecretRef() string {
	return GetEnv("CLIENT_SECRET_REF", GetEnv("CLIENT_SECRET_ARN", ""))
}

func (OIDC) GetRedirectURI() string {
	return GetEnv("REDIRECT_URI", "")
}

func (OIDC) GetIssuer() string {
	return strings.TrimSuffix(GetEnv("ISSUER", ""), "/")
}

func (o OIDC) GetAuthorizationEndpoint() string {
	return GetEnv("AUTHORIZATION_ENDPOINT", o.GetIssuer()+"/oauth2/v2.0/authorize")
}

func (o OIDC) GetTokenEndpoint() string {
	return GetEnv("TOKEN_ENDPOINT", o.GetIssuer()+"/oauth2/v2.0/token")
}

func (OIDC) GetScopes() []string {
	return []string{"openid", "profile", "email"}
}

func (OIDC) GetVerifyIDToken() bool {
	return GetEnvBool("VERIFY_ID_TOKEN", false)
}

func (OIDC) GetPostLoginRedirect() string {
	return GetEnv("POST_LOGIN_REDIRECT", "/")
}

func (OIDC) GetIdPHTTPTimeout() time.Duration {
	return GetEnvDuration("IDP_HTTP_TIMEOUT", 10*time.Second)
}

func (OIDC) GetBaselinePolicyIDs() []string {
	return utils.SplitList(GetEnv("BASELINE_POLICY_IDS", "tenant-isolation,agent-invoke"))
}
