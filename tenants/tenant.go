// Package tenants provisions tenants just in time on their first login.
package tenants

import (
	"strings"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
)

const (
	OnboardingStateActive   = "ACTIVE"
	OnboardingVersion       = 1
	AttachmentStateAttached = "ATTACHED"
	PolicyTypeBaseline      = "BASELINE"
	AttachmentSourceJIT     = "jit-onboarding"
	PolicyAttachmentVersion = 1
)

// Invariant fields are compared when a record already exists. They must never change for a tenant.
var (
	MetadataInvariants = []string{"onboarding_state", "tenant_root_prefix", "session_partition_key"}
	PolicyInvariants   = []string{"attachment_state", "policy_id", "policy_type", "scope", "attachment_source", "attachment_version"}
)

// Metadata is written once per tenant.
type Metadata struct {
	TenantID            string `json:"tenant_id"`
	AppID               string `json:"app_id"`
	OnboardingState     string `json:"onboarding_state"`
	OnboardingVersion   int    `json:"onboarding_version"`
	TenantRootPrefix    string `json:"tenant_root_prefix"`
	SessionPartitionKey string `json:"session_partition_key"`
	CreatedAt           int64  `json:"created_at"`
	UpdatedAt           int64  `json:"updated_at"`
}

// PolicyAttachment records one baseline policy bound to a tenant.
type PolicyAttachment struct {
	AttachmentState   string `json:"attachment_state"`
	PolicyID          string `json:"policy_id"`
	PolicyType        string `json:"policy_type"`
	Scope             string `json:"scope"`
	AttachmentSource  string `json:"attachment_source"`
	AttachmentVersion int    `json:"attachment_version"`
	CreatedAt         int64  `json:"created_at"`
}

// RootPrefix is the tenant's storage root, "<appId>/<tenantId>/".
func RootPrefix(appID, tenantID string) string {
	return appID + "/" + tenantID + "/"
}

// ValidateID rejects tenant ids that cannot round-trip through the session cookie or the
// composite store key.
func ValidateID(tenantID string) error {
	if tenantID == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidTenant, "empty tenant id")
	}
	if strings.ContainsAny(tenantID, ":#") {
		return apperrors.Wrapf(apperrors.ErrInvalidTenant, "tenant id %q contains a reserved character", tenantID)
	}
	return nil
}
