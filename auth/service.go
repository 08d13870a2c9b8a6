// Package auth implements the broker's three entry points: the login initiator, the OIDC
// callback and the per-request session authorizer.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/bff-auth/idp"
	"github.com/jrsteele09/bff-auth/sessions"
	"github.com/jrsteele09/bff-auth/store"
)

const (
	DefaultTempSessionTTL     = 600 * time.Second
	DefaultRefreshWindow      = 300 * time.Second
	DefaultDefaultTokenExpiry = 3600 * time.Second
)

// TenantOnboarder provisions a tenant before its first session is written.
type TenantOnboarder interface {
	Onboard(ctx context.Context, tenantID string) error
}

// Settings holds the per-deployment values the service needs.
type Settings struct {
	AppID             string
	PostLoginRedirect string

	TempSessionTTL     time.Duration
	RefreshWindow      time.Duration
	DefaultTokenExpiry time.Duration // used when the IdP omits expires_in
}

// Service handles login, callback and authorization. It holds no per-request state;
// everything shared lives in the store.
type Service struct {
	settings     Settings
	tempSessions *sessions.TempRepo
	sessions     *sessions.Repo
	provider     idp.Provider
	onboarder    TenantOnboarder
	nowTime      func() time.Time // injectable for testing
	newID        func() string
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithIDGenerator sets the session id generator (primarily for testing)
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService wires the service to its store, identity provider and onboarder.
func NewService(
	settings Settings,
	s store.Store,
	provider idp.Provider,
	onboarder TenantOnboarder,
	options ...ServiceOption,
) (*Service, error) {
	if settings.AppID == "" {
		return nil, errors.New("[NewService] app id is required")
	}
	if s == nil {
		return nil, errors.New("[NewService] store is required")
	}
	if provider == nil {
		return nil, errors.New("[NewService] identity provider is required")
	}
	if onboarder == nil {
		return nil, errors.New("[NewService] onboarder is required")
	}

	if settings.PostLoginRedirect == "" {
		settings.PostLoginRedirect = "/"
	}
	if settings.TempSessionTTL <= 0 {
		settings.TempSessionTTL = DefaultTempSessionTTL
	}
	if settings.RefreshWindow <= 0 {
		settings.RefreshWindow = DefaultRefreshWindow
	}
	if settings.DefaultTokenExpiry <= 0 {
		settings.DefaultTokenExpiry = DefaultDefaultTokenExpiry
	}

	svc := &Service{
		settings:     settings,
		tempSessions: sessions.NewTempRepo(s, settings.AppID),
		sessions:     sessions.NewRepo(s, settings.AppID),
		provider:     provider,
		onboarder:    onboarder,
		nowTime:      time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range options {
		opt(svc)
	}
	return svc, nil
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
