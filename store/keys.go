package store

// Composite key layout. Every tenant's records live under their own partition so a single
// Get can never cross tenants; temporary login state shares one partition per application.
const (
	SessionSKPrefix = "SESSION#"
	TenantMetaSK    = "TENANT#META"
	PolicySKPrefix  = "POLICY#BASELINE#"
)

// TempScope is the partition key for pre-authentication login state.
func TempScope(appID string) string {
	return "APP#" + appID + "#TEMP"
}

// TenantScope is the partition key for everything owned by one tenant of one application.
func TenantScope(appID, tenantID string) string {
	return "APP#" + appID + "#TENANT#" + tenantID
}

func TempSessionKey(appID, sessionID string) Key {
	return Key{PK: TempScope(appID), SK: SessionSKPrefix + sessionID}
}

func SessionKey(appID, tenantID, sessionID string) Key {
	return Key{PK: TenantScope(appID, tenantID), SK: SessionSKPrefix + sessionID}
}

func TenantMetaKey(appID, tenantID string) Key {
	return Key{PK: TenantScope(appID, tenantID), SK: TenantMetaSK}
}

func PolicyKey(appID, tenantID, policyID string) Key {
	return Key{PK: TenantScope(appID, tenantID), SK: PolicySKPrefix + policyID}
}
