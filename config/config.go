package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the reminder pipeline needs. It is built once at
// start-up and handed to the router, controllers and services.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL string

	// CronSecret authorizes callers of the scheduler trigger.
	CronSecret string
	// EventReminderSecret authorizes callers of the reminder dispatcher.
	EventReminderSecret string
	// EventReminderURL overrides the dispatcher URL the trigger calls.
	EventReminderURL string

	ResendAPIKey      string
	ResendDefaultFrom string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioPhoneNumber    string
	TwilioWhatsAppNumber string

	CronSpec      string
	CronTargetURL string

	ClaimBeforeSend bool
	AuditLog        bool

	// Location is the fixed civil offset event dates and times are written in.
	Location *time.Location
}

const defaultTimezoneOffset = "-05:00"

// Load reads configuration from environment variables and .env file (if present).
// Unset secrets and credentials are not errors here: the handlers report them
// per request so a misconfigured deployment still answers with a reason.
func Load() (*Config, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getenv("PORT"),
		Environment:          strings.ToLower(getenv("ENVIRONMENT")),
		LogLevel:             strings.ToLower(getenv("LOG_LEVEL")),
		DatabaseURL:          getenv("DATABASE_URL"),
		CronSecret:           getenv("CRON_SECRET"),
		EventReminderSecret:  getenv("EVENT_REMINDER_SECRET"),
		EventReminderURL:     getenv("EVENT_REMINDER_URL"),
		ResendAPIKey:         getenv("RESEND_API_KEY"),
		ResendDefaultFrom:    getenv("RESEND_DEFAULT_FROM"),
		TwilioAccountSID:     getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:    getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppNumber: getenv("TWILIO_WHATSAPP_NUMBER"),
		CronSpec:             getenv("CRON_SPEC"),
		CronTargetURL:        getenv("CRON_TARGET_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenv("DB_URL")
	}
	if cfg.CronTargetURL == "" {
		cfg.CronTargetURL = "http://localhost:" + cfg.Port + "/api/cron"
	}

	var err error
	if cfg.ClaimBeforeSend, err = getbool("REMINDER_CLAIM_BEFORE_SEND"); err != nil {
		return nil, err
	}
	if cfg.AuditLog, err = getbool("REMINDER_AUDIT_LOG"); err != nil {
		return nil, err
	}

	offset := getenv("REMINDER_TIMEZONE_OFFSET")
	if offset == "" {
		offset = defaultTimezoneOffset
	}
	if cfg.Location, err = ParseOffset(offset); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE_OFFSET: %w", err)
	}

	return cfg, nil
}

// HasStore reports whether data-store credentials are configured.
func (c *Config) HasStore() bool {
	return c.DatabaseURL != ""
}

// HasMailer reports whether the email provider is configured.
func (c *Config) HasMailer() bool {
	return c.ResendAPIKey != "" && c.ResendDefaultFrom != ""
}

// HasSMS reports whether Twilio can be used for SMS copies.
func (c *Config) HasSMS() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		(c.TwilioPhoneNumber != "" || c.TwilioWhatsAppNumber != "")
}

// ParseOffset turns "+HH:MM" / "-HH:MM" into a fixed zone.
func ParseOffset(offset string) (*time.Location, error) {
	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, err
	}
	_, secs := t.Zone()
	return time.FixedZone("UTC"+offset, secs), nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getbool(key string) (bool, error) {
	v := getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
