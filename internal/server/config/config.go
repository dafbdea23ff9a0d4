// Package config handles configuration for the server component: defaults,
// then an optional JSON file, then environment variables, then command-line
// flags, each layer overriding the previous one.
package config

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// Config holds runtime settings for the gophauth server.
//
// An empty DatabaseDSN selects the in-memory store and an empty RedisAddr the
// in-process lock; both are meant for a single local instance. An empty
// SMTPHost logs mail instead of sending it.
type Config struct {
	HTTPAddr    string
	DatabaseDSN string
	RedisAddr   string

	JWTSecret    string
	SessionTTL   time.Duration
	TwoFactorTTL time.Duration
	ResetTTL     time.Duration
	BcryptCost   int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSecure   bool
	MailFrom     string
	ResetURLBase string

	NotifyQueueSize int
	NotifyWorkers   int

	LogLevel    string
	CORSOrigins string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the JWT secret default is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5001"
	c.DatabaseDSN = ""
	c.RedisAddr = ""
	c.JWTSecret = "dev_secret_change_me"
	c.SessionTTL = 7 * 24 * time.Hour
	c.TwoFactorTTL = services.DefaultTwoFactorTTL
	c.ResetTTL = services.DefaultResetTTL
	c.BcryptCost = auth.DefaultBcryptCost
	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPSecure = false
	c.MailFrom = "no-reply@cms.local"
	c.ResetURLBase = "http://localhost:3000/reset-password"
	c.NotifyQueueSize = 128
	c.NotifyWorkers = 2
	c.LogLevel = "info"
	c.CORSOrigins = "*"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
