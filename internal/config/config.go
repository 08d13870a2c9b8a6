package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	OIDCConfig
	StoreConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	OIDC
	Store
	Security
}

// New loads an optional .env file and returns the environment backed configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
