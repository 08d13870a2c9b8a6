package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// randomTokenBytes gives state and nonce 256 bits of entropy.
	randomTokenBytes = 32

	CodeChallengeMethodS256 = "S256"
)

// PKCE is a proof key pair (RFC 7636). The verifier never leaves the server.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewPKCE generates a verifier of 32 random bytes (43 base64url characters, no padding)
// and its S256 challenge.
func NewPKCE() PKCE {
	verifier := oauth2.GenerateVerifier()
	return PKCE{
		Verifier:  verifier,
		Challenge: ChallengeFromVerifier(verifier),
		Method:    CodeChallengeMethodS256,
	}
}

// ChallengeFromVerifier computes base64url(sha256(verifier)) without padding.
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// RandomToken returns n random bytes encoded as unpadded base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[RandomToken] %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
