package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from a zero value, so a file only overrides the keys
// it names. Durations accept "5m", "7d" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	DatabaseDSN     *string         `json:"database_dsn"`
	RedisAddr       *string         `json:"redis_addr"`
	JWTSecret       *string         `json:"jwt_secret"`
	SessionTTL      *timex.Duration `json:"session_ttl"`
	TwoFactorTTL    *timex.Duration `json:"two_factor_ttl"`
	ResetTTL        *timex.Duration `json:"reset_ttl"`
	BcryptCost      *int            `json:"bcrypt_cost"`
	SMTPHost        *string         `json:"smtp_host"`
	SMTPPort        *int            `json:"smtp_port"`
	SMTPUser        *string         `json:"smtp_user"`
	SMTPPassword    *string         `json:"smtp_password"`
	SMTPSecure      *bool           `json:"smtp_secure"`
	MailFrom        *string         `json:"mail_from"`
	ResetURLBase    *string         `json:"reset_url_base"`
	NotifyQueueSize *int            `json:"notify_queue_size"`
	NotifyWorkers   *int            `json:"notify_workers"`
	LogLevel        *string         `json:"log_level"`
	CORSOrigins     *string         `json:"cors_origins"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.JWTSecret, c.JWTSecret)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.TwoFactorTTL, c.TwoFactorTTL)
	setDuration(&config.ResetTTL, c.ResetTTL)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	if c.SMTPSecure != nil {
		config.SMTPSecure = *c.SMTPSecure
	}
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.ResetURLBase, c.ResetURLBase)
	setInt(&config.NotifyQueueSize, c.NotifyQueueSize)
	setInt(&config.NotifyWorkers, c.NotifyWorkers)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSOrigins, c.CORSOrigins)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
