// Package config decodes process environment variables into the
// settings cmd/mcp-mqtt-server needs to dial a broker and start an
// engine.Engine. The Engine itself has no environment dependency; this
// package exists only for the command-line driver.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config holds the environment-sourced settings for the example
// command-line server.
type Config struct {
	BrokerAddr string `env:"MCP_MQTT_BROKER_ADDR,required"`
	ServerID   string `env:"MCP_MQTT_SERVER_ID,required"`
	ServerName string `env:"MCP_MQTT_SERVER_NAME,required"`
	LogLevel   string `env:"MCP_MQTT_LOG_LEVEL,default=info"`

	AuthIssuer   string `env:"MCP_MQTT_AUTH_ISSUER"`
	AuthAudience string `env:"MCP_MQTT_AUTH_AUDIENCE"`

	// AuthJWKSURL, when set alongside AuthIssuer/AuthAudience, selects the
	// static-JWKS authenticator instead of OIDC discovery: the JWKS is
	// fetched directly from this URL rather than resolved via the
	// issuer's discovery document.
	AuthJWKSURL string `env:"MCP_MQTT_AUTH_JWKS_URL"`
}

// FromEnv decodes a Config from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// AuthEnabled reports whether the base auth environment variables were set.
func (c Config) AuthEnabled() bool {
	return c.AuthIssuer != "" && c.AuthAudience != ""
}

// StaticJWKSEnabled reports whether auth should validate tokens against a
// manually configured JWKS endpoint instead of performing OIDC discovery.
func (c Config) StaticJWKSEnabled() bool {
	return c.AuthEnabled() && c.AuthJWKSURL != ""
}
