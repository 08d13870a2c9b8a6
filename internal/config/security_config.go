package config

import "time"

type SecurityConfig interface {
	GetTempSessionTTL() time.Duration
	GetRefreshWindow() time.Duration
	GetDefaultTokenExpiry() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetTempSessionTTL() time.Duration {
	return 600 * time.Second
}

// GetRefreshWindow is how close to expiry a session is refreshed by the authorizer.
func (Security) GetRefreshWindow() time.Duration {
	return 300 * time.Second
}

// GetDefaultTokenExpiry applies when the IdP omits expires_in.
func (Security) GetDefaultTokenExpiry() time.Duration {
	return 3600 * time.Second
}
