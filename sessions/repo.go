package sessions

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
	"github.com/jrsteele09/bff-auth/store"
)

// TempRepo persists TempSession records under the application's temp partition.
type TempRepo struct {
	store store.Store
	appID string
}

func NewTempRepo(s store.Store, appID string) *TempRepo {
	return &TempRepo{store: s, appID: appID}
}

func (r *TempRepo) Create(ctx context.Context, t *TempSession) error {
	if t == nil || t.SessionID == "" {
		return errors.New("[TempRepo.Create] session id cannot be empty")
	}
	if err := r.store.Put(ctx, store.TempSessionKey(r.appID, t.SessionID), t); err != nil {
		return fmt.Errorf("[TempRepo.Create] %w", err)
	}
	return nil
}

// Get returns ErrSessionNotFound when no record exists. Expiry is left to the caller.
func (r *TempRepo) Get(ctx context.Context, sessionID string) (*TempSession, error) {
	t := &TempSession{}
	if err := r.store.Get(ctx, store.TempSessionKey(r.appID, sessionID), t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("[TempRepo.Get] %w", err)
	}
	return t, nil
}

func (r *TempRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Delete(ctx, store.TempSessionKey(r.appID, sessionID)); err != nil {
		return fmt.Errorf("[TempRepo.Delete] %w", err)
	}
	return nil
}

// Repo persists Session records under their tenant partition.
type Repo struct {
	store store.Store
	appID string
}

func NewRepo(s store.Store, appID string) *Repo {
	return &Repo{store: s, appID: appID}
}

func (r *Repo) Create(ctx context.Context, s *Session) error {
	if s == nil || s.TenantID == "" || s.SessionID == "" {
		return errors.New("[Repo.Create] tenant id and session id are required")
	}
	if err := r.store.Put(ctx, store.SessionKey(r.appID, s.TenantID, s.SessionID), s); err != nil {
		return fmt.Errorf("[Repo.Create] %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	s := &Session{}
	if err := r.store.Get(ctx, store.SessionKey(r.appID, tenantID, sessionID), s); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("[Repo.Get] %w", err)
	}
	return s, nil
}

// UpdateTokens rewrites the refreshed token set in place. An empty refreshToken keeps the stored one.
func (r *Repo) UpdateTokens(ctx context.Context, tenantID, sessionID, accessToken, refreshToken string, expiresAt int64) error {
	fields := map[string]any{
		"access_token": accessToken,
		"expires_at":   expiresAt,
	}
	if refreshToken != "" {
		fields["refresh_token"] = refreshToken
	}
	if err := r.store.Update(ctx, store.SessionKey(r.appID, tenantID, sessionID), fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.ErrSessionNotFound
		}
		return fmt.Errorf("[Repo.UpdateTokens] %w", err)
	}
	return nil
}
