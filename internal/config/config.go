package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type MailConfig struct {
	SendGridKey string
	From        string
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Mongo    MongoConfig
	JWT      JWTConfig
	Mail     MailConfig
}

// Load reads configuration from the environment. When path is non-empty the
// .env file at that path is loaded first; a missing file is not an error so
// the same binary runs in containers without one.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")

	if cfg.Mongo.URI, err = requireEnv("MONGO_URI"); err != nil {
		return nil, err
	}
	cfg.Mongo.Database = getEnv("MONGO_DB", "marketplace")

	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	ttl := getEnv("JWT_TTL", "24h")
	cfg.JWT.TTL, err = time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL %q: %w", ttl, err)
	}

	// Mail is optional: without a key the app falls back to a no-op mailer.
	cfg.Mail.SendGridKey = os.Getenv("SENDGRID_API_KEY")
	cfg.Mail.From = getEnv("MAIL_FROM", "no-reply@marketplace.local")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
