package token

import (
	"errors"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claim names read by the broker. Entra ID issues "tid"; other IdPs are configured to emit "tenant_id".
const (
	ClaimTenantID         = "tid"
	ClaimTenantIDFallback = "tenant_id"
	ClaimSubject          = "sub"
	ClaimObjectID         = "oid"
	ClaimEmail            = "email"
	ClaimUPN              = "upn"
	ClaimNonce            = "nonce"
)

var errNotJWT = errors.New("token is not a JWT")

// Claims are identity claims decoded from a JWT payload.
type Claims map[string]any

// ParseUnverified decodes the payload of a compact JWT without checking its signature.
// Padded base64url segments are accepted.
func ParseUnverified(rawToken string) (Claims, error) {
	if !LooksLikeJWT(rawToken) {
		return nil, errNotJWT
	}
	parser := jwtlib.NewParser(jwtlib.WithPaddingAllowed())
	parsed, _, err := parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}
	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}
	return Claims(mapClaims), nil
}

// LooksLikeJWT reports whether raw has the three dot separated segments of a compact JWS.
func LooksLikeJWT(raw string) bool {
	parts := strings.Split(raw, ".")
	return len(parts) == 3 && parts[0] != "" && parts[1] != ""
}

func (c Claims) str(name string) string {
	v, _ := c[name].(string)
	return v
}

func (c Claims) first(names ...string) string {
	for _, n := range names {
		if v := c.str(n); v != "" {
			return v
		}
	}
	return ""
}

// TenantID returns "tid", falling back to "tenant_id".
func (c Claims) TenantID() string {
	return c.first(ClaimTenantID, ClaimTenantIDFallback)
}

// Subject returns "sub", falling back to "oid".
func (c Claims) Subject() string {
	return c.first(ClaimSubject, ClaimObjectID)
}

// Email returns "email", falling back to "upn".
func (c Claims) Email() string {
	return c.first(ClaimEmail, ClaimUPN)
}

func (c Claims) Nonce() string {
	return c.str(ClaimNonce)
}

// ScopeClaims decodes the tenant-bearing claims of a stored session: the ID token first,
// then the access token when it is JWT shaped. ok is false if neither carries a tenant claim.
func ScopeClaims(idToken, accessToken string) (claims Claims, ok bool) {
	for _, raw := range []string{idToken, accessToken} {
		if raw == "" {
			continue
		}
		c, err := ParseUnverified(raw)
		if err != nil {
			continue
		}
		if c.TenantID() != "" {
			return c, true
		}
	}
	return nil, false
}
