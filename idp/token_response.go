package idp

// TokenResponse is the subset of the token endpoint response (RFC 6749 §5.1) the broker keeps.
type TokenResponse struct {
	// AccessToken is forwarded to the downstream agent API by the proxy.
	AccessToken string

	// IDToken is the OpenID Connect ID token. The tenant and principal claims are read from it.
	// Refresh responses may omit it.
	IDToken string

	// RefreshToken is optional. When a refresh response omits it the previous one is kept.
	RefreshToken string

	// ExpiresIn is the access token lifetime in seconds, 0 if the IdP did not say.
	ExpiresIn int64
}
