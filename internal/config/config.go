// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is an optional Redis address (host:port). When set, pending
	// auth flows are stored in Redis instead of Postgres.
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	// OIDCIssuer is the identity provider issuer URL; endpoints are discovered
	// from {issuer}/.well-known/openid-configuration.
	OIDCIssuer string `mapstructure:"OIDC_ISSUER"`
	// OIDCClientID is the OAuth2 client id registered with the provider.
	OIDCClientID string `mapstructure:"OIDC_CLIENT_ID"`
	// OIDCClientSecret is the OAuth2 client secret.
	OIDCClientSecret string `mapstructure:"OIDC_CLIENT_SECRET"`
	// OIDCRedirectURL is the absolute callback URL registered with the provider
	// (e.g. https://app.example.com/auth/callback).
	OIDCRedirectURL string `mapstructure:"OIDC_REDIRECT_URL"`
	// OIDCScopes is a comma-separated list of extra scopes requested on top of "openid".
	OIDCScopes string `mapstructure:"OIDC_SCOPES"`

	// FlowTTLRaw is the pending-flow lifetime (e.g. "10m"). A flow not completed
	// within this window is invalid.
	FlowTTLRaw string `mapstructure:"FLOW_TTL"`

	// SessionSinkURL, when set, delegates session minting to an internal HTTP
	// service instead of the local session store.
	SessionSinkURL string `mapstructure:"SESSION_SINK_URL"`
	// SessionSinkSecret is the shared secret for Basic auth against the session sink.
	SessionSinkSecret string `mapstructure:"SESSION_SINK_SECRET"`

	// BcryptCost is the bcrypt cost factor (4-31) for session credential hashes; default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// CookieDomain is the Domain attribute for the session cookie; empty means host-only.
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CookieSecure sets the Secure attribute on the session cookie. Disable only
	// for local development over plain HTTP.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set,
	// audit events are also published to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events.
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC endpoint for telemetry export; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("OIDC_ISSUER", "")
	v.SetDefault("OIDC_CLIENT_ID", "")
	v.SetDefault("OIDC_CLIENT_SECRET", "")
	v.SetDefault("OIDC_REDIRECT_URL", "")
	v.SetDefault("OIDC_SCOPES", "profile,email")
	v.SetDefault("FLOW_TTL", "10m")
	v.SetDefault("SESSION_SINK_URL", "")
	v.SetDefault("SESSION_SINK_SECRET", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "auth-gateway-audit")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if !cfg.CookieSecure && cfg.Env == "production" {
		return nil, errors.New("config: COOKIE_SECURE must not be false when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// FlowTTL parses FLOW_TTL as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) FlowTTL() time.Duration {
	d, err := time.ParseDuration(c.FlowTTLRaw)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Scopes returns the extra OIDC scopes from the comma-separated config.
func (c *Config) Scopes() []string {
	return splitCommaList(c.OIDCScopes)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if audit publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitCommaList(c.KafkaBrokers)
}

func splitCommaList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
