package config

import "time"

// StoreConfig selects and configures the durable key-value store and the secret provider.
type StoreConfig interface {
	GetSessionStore() string
	GetSessionTable() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
	GetRedisRetention() time.Duration
	GetDatabaseURL() string
	GetAWSRegion() string
	GetSecretProvider() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetSessionStore is one of memory, redis, dynamodb or postgres.
func (Store) GetSessionStore() string {
	return GetEnv("SESSION_STORE", "memory")
}

func (Store) GetSessionTable() string {
	return GetEnv("SESSION_TABLE", "bff-sessions")
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "bff:")
}

// GetRedisRetention is how long a record survives past its expires_at attribute.
func (Store) GetRedisRetention() time.Duration {
	return GetEnvDuration("REDIS_RETENTION", 30*24*time.Hour)
}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Store) GetAWSRegion() string {
	return GetEnv("AWS_REGION", "")
}

// GetSecretProvider is one of aws, env or none.
func (Store) GetSecretProvider() string {
	return GetEnv("SECRET_PROVIDER", "aws")
}
