package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// parseEnv overlays values from environment variables. Unset variables leave
// the field alone; a set but malformed value is an error.
//
//	PORT            HTTP port (":<port>" is derived from it)
//	HTTP_ADDR       full bind address, wins over PORT
//	DATABASE_DSN    PostgreSQL DSN
//	REDIS_ADDR      Redis address for the account lock
//	JWT_SECRET      session signing secret
//	JWT_EXPIRES_IN  session lifetime, e.g. "7d" or "12h"
//	BCRYPT_COST     bcrypt work factor
//	SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_SECURE
//	MAIL_FROM       sender address
//	RESET_URL_BASE  page the reset link points at
//	LOG_LEVEL       debug, info, warn or error
//	CORS_ORIGINS    comma separated allowed origins
func parseEnv(config *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		config.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.JWTSecret, "JWT_SECRET")
	envString(&config.SMTPHost, "SMTP_HOST")
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASS")
	envString(&config.MailFrom, "MAIL_FROM")
	envString(&config.ResetURLBase, "RESET_URL_BASE")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.CORSOrigins, "CORS_ORIGINS")

	if v, ok := os.LookupEnv("JWT_EXPIRES_IN"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		config.SessionTTL = d
	}
	if err := envInt(&config.SMTPPort, "SMTP_PORT"); err != nil {
		return err
	}
	if err := envInt(&config.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SMTP_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SMTP_SECURE: %w", err)
		}
		config.SMTPSecure = b
	}
	return nil
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}
