package config

import (
	"fmt"

	pkgconfig "github.com/coregatekit/microservices/pkg/config"
)

const defaultClientSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the user service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"USER_HTTP_PORT" envDefault:"8006"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"coregate"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"coregate_secret"`
	PostgresDB   string `env:"USER_DB_NAME" envDefault:"user_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Keycloak
	KeycloakBaseURL           string `env:"KEYCLOAK_BASE_URL" envDefault:"http://localhost:8080"`
	KeycloakRealm             string `env:"KEYCLOAK_REALM" envDefault:"coregate"`
	KeycloakClientID          string `env:"KEYCLOAK_CLIENT_ID" envDefault:"user-service"`
	KeycloakClientSecret      string `env:"KEYCLOAK_CLIENT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	KeycloakAdminClientID     string `env:"KEYCLOAK_ADMIN_CLIENT_ID"`
	KeycloakAdminClientSecret string `env:"KEYCLOAK_ADMIN_CLIENT_SECRET"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate     float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// In non-development environments, require an explicitly set client secret.
	if cfg.Environment != "development" && cfg.KeycloakClientSecret == defaultClientSecret {
		return nil, fmt.Errorf("KEYCLOAK_CLIENT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// IsProduction reports whether the service runs in production mode. Test-only
// teardown endpoints are disabled when it returns true.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
