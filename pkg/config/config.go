package config

import (
	dbutils "github.com/tendant/db-utils/db"
)

// DbConfig holds the PostgreSQL connection settings
type DbConfig struct {
	Host     string `env:"IDENTITY_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"IDENTITY_PG_PORT" env-default:"5432"`
	Database string `env:"IDENTITY_PG_DATABASE" env-default:"identity_db"`
	User     string `env:"IDENTITY_PG_USER" env-default:"identity"`
	Password string `env:"IDENTITY_PG_PASSWORD" env-default:"pwd"`
}

// ToDbConfig converts to the db-utils pool configuration
func (d DbConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

// JwtConfig holds the token signing settings
type JwtConfig struct {
	Secret   string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer   string `env:"JWT_ISSUER" env-default:"hirewire-identity"`
	Audience string `env:"JWT_AUDIENCE" env-default:"hirewire"`
}

// EmailConfig holds the SMTP settings for outbound mail
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@hirewire.example"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@hirewire.example"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ServiceConfig holds the remaining service settings
type ServiceConfig struct {
	// BaseURL is the public URL used in activation and reset links
	BaseURL      string `env:"IDENTITY_BASE_URL" env-default:"http://localhost:4000"`
	BcryptCost   int    `env:"IDENTITY_BCRYPT_COST" env-default:"10"`
	RunMigration bool   `env:"IDENTITY_RUN_MIGRATION" env-default:"true"`

	// Per-IP throttle on the credential endpoints. TrustProxyHeaders keys
	// the throttle on X-Forwarded-For; only enable it behind a proxy that
	// overwrites the header.
	RateLimitBurst     int     `env:"IDENTITY_RATE_LIMIT_BURST" env-default:"10"`
	RateLimitPerSecond float64 `env:"IDENTITY_RATE_LIMIT_PER_SECOND" env-default:"1"`
	TrustProxyHeaders  bool    `env:"IDENTITY_TRUST_PROXY_HEADERS" env-default:"false"`
}
