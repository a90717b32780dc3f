// Package config handles environment variable loading for Fletcher: the
// database connection, HTTP port, token signing key, the remote service
// allow-list, and the compute adapter base URLs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// RemoteAPI is one entry of REMOTE_APIS: a service allowed to call
// Fletcher's API, identified by a bcrypt hash of its key and the roles
// it is granted.
type RemoteAPI struct {
	Service string   `json:"service"`
	Hash    string   `json:"hash"`
	Roles   []string `json:"roles"`
}

// Config holds all configuration values for the controller process.
type Config struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// MaxConnections bounds the database/sql connection pool.
	MaxConnections int

	// HTTPPort is the controller's listen port.
	HTTPPort int

	// SecretKey signs and verifies bearer tokens (HMAC).
	SecretKey string

	// RemoteAPIs enumerates services allowed to authenticate.
	RemoteAPIs []RemoteAPI

	// LogLevel controls structured log verbosity: error|warn|info|debug|trace.
	LogLevel string

	// CAMSBaseURL / DBXaaSBaseURL are the compute adapters' submission endpoints.
	CAMSBaseURL   string
	DBXaaSBaseURL string

	// OTELEndpoint is the OTLP collector address for traces.
	OTELEndpoint string

	// TokenTTLSeconds is the bearer token lifetime (§6 default 3600s).
	TokenTTLSeconds int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	remoteAPIsRaw := os.Getenv("REMOTE_APIS")
	if remoteAPIsRaw == "" {
		return nil, fmt.Errorf("REMOTE_APIS is required")
	}
	var remoteAPIs []RemoteAPI
	if err := json.Unmarshal([]byte(remoteAPIsRaw), &remoteAPIs); err != nil {
		return nil, fmt.Errorf("invalid REMOTE_APIS: %w", err)
	}

	maxConns, err := intEnv("MAX_CONNECTIONS", 10)
	if err != nil {
		return nil, err
	}

	port, err := intEnv("HTTP_PORT", 6161)
	if err != nil {
		return nil, err
	}

	ttl, err := intEnv("TOKEN_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DatabaseURL:     dbURL,
		MaxConnections:  maxConns,
		HTTPPort:        port,
		SecretKey:       secretKey,
		RemoteAPIs:      remoteAPIs,
		LogLevel:        logLevel,
		CAMSBaseURL:     envDefault("CAMS_BASE_URL", "http://localhost:9001"),
		DBXaaSBaseURL:   envDefault("DBXAAS_BASE_URL", "http://localhost:9002"),
		OTELEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TokenTTLSeconds: ttl,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
