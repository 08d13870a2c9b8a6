package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
	"github.com/jrsteele09/bff-auth/internal/metrics"
	"github.com/jrsteele09/bff-auth/store"
)

// Onboarder provisions the tenant metadata record and the baseline policy attachments.
type Onboarder struct {
	store            store.Store
	appID            string
	baselinePolicies []string
	nowTime          func() time.Time
}

// OnboarderOption defines a function type to modify the Onboarder instance.
type OnboarderOption func(*Onboarder)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) OnboarderOption {
	return func(o *Onboarder) {
		o.nowTime = nowFunc
	}
}

func NewOnboarder(s store.Store, appID string, baselinePolicies []string, options ...OnboarderOption) (*Onboarder, error) {
	if s == nil {
		return nil, errors.New("[NewOnboarder] store is required")
	}
	if appID == "" {
		return nil, errors.New("[NewOnboarder] app id is required")
	}

	o := &Onboarder{
		store:            s,
		appID:            appID,
		baselinePolicies: baselinePolicies,
		nowTime:          time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Onboard makes sure tenantID has exactly one metadata record and one attachment per baseline
// policy. It is safe to call on every login and completes a partially onboarded tenant.
// Existing records whose invariant fields differ fail with ErrInvariantMismatch.
func (o *Onboarder) Onboard(ctx context.Context, tenantID string) error {
	if err := ValidateID(tenantID); err != nil {
		return fmt.Errorf("[Onboard] %w", err)
	}

	now := o.nowTime().Unix()
	scope := store.TenantScope(o.appID, tenantID)

	meta := Metadata{
		TenantID:            tenantID,
		AppID:               o.appID,
		OnboardingState:     OnboardingStateActive,
		OnboardingVersion:   OnboardingVersion,
		TenantRootPrefix:    RootPrefix(o.appID, tenantID),
		SessionPartitionKey: scope,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := o.createOrVerify(ctx, "meta", tenantID, store.TenantMetaKey(o.appID, tenantID), meta, MetadataInvariants); err != nil {
		return err
	}

	for _, policyID := range o.baselinePolicies {
		attachment := PolicyAttachment{
			AttachmentState:   AttachmentStateAttached,
			PolicyID:          policyID,
			PolicyType:        PolicyTypeBaseline,
			Scope:             scope,
			AttachmentSource:  AttachmentSourceJIT,
			AttachmentVersion: PolicyAttachmentVersion,
			CreatedAt:         now,
		}
		if err := o.createOrVerify(ctx, "policy", tenantID, store.PolicyKey(o.appID, tenantID, policyID), attachment, PolicyInvariants); err != nil {
			return err
		}
	}
	return nil
}

func (o *Onboarder) createOrVerify(ctx context.Context, record, tenantID string, key store.Key, item any, invariants []string) error {
	created, err := store.CreateOrVerify(ctx, o.store, key, item, invariants...)
	switch {
	case errors.Is(err, apperrors.ErrInvariantMismatch):
		metrics.OnboardingWrites.WithLabelValues(record, "mismatch").Inc()
		log.Error().Err(err).Str("tenant_id", tenantID).Str("sk", key.SK).Msg("tenant record invariant mismatch")
		return fmt.Errorf("[Onboard] tenant %s: %w", tenantID, err)
	case err != nil:
		metrics.OnboardingWrites.WithLabelValues(record, "error").Inc()
		return fmt.Errorf("[Onboard] tenant %s %s: %w", tenantID, key.SK, err)
	case created:
		metrics.OnboardingWrites.WithLabelValues(record, "created").Inc()
		log.Info().Str("tenant_id", tenantID).Str("sk", key.SK).Msg("tenant record created")
	default:
		metrics.OnboardingWrites.WithLabelValues(record, "verified").Inc()
	}
	return nil
}
