package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	SMS    SMSConfig
	SMTP   SMTPConfig
	Log    LogConfig
	App    AppConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable and
// DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"coupon_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// RedisConfig holds the optional OTP session store backend. When Enabled is
// false, sessions live in process memory and do not survive restarts.
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Addr returns the host:port pair for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMSConfig holds Twilio credentials. Left empty, SMS falls back to the
// logging notifier.
type SMSConfig struct {
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER" default:""`
}

// Configured reports whether real SMS delivery is available.
func (c SMSConfig) Configured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// SMTPConfig holds the coupon email transport. Left empty, email falls back
// to the logging notifier.
type SMTPConfig struct {
	Host      string `envconfig:"SMTP_HOST" default:""`
	Port      int    `envconfig:"SMTP_PORT" default:"587"`
	Username  string `envconfig:"SMTP_USERNAME" default:""`
	Password  string `envconfig:"SMTP_PASSWORD" default:""`
	FromEmail string `envconfig:"SMTP_FROM_EMAIL" default:"noreply@example.com"`
	FromName  string `envconfig:"SMTP_FROM_NAME" default:"Coupon Platform"`
}

// Configured reports whether real email delivery is available.
func (c SMTPConfig) Configured() bool {
	return c.Host != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AppConfig holds application-mode switches. DemoMode selects the fixed OTP
// code source and logging notifiers at wiring time.
type AppConfig struct {
	DemoMode bool `envconfig:"DEMO_MODE" default:"true"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
