package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for zonewatch.
type Config struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// QuietHours suppresses non-forced SMS sends inside the window.
	// Format: "HH:MM-HH:MM" in local time; may span midnight ("22:00-07:00").
	QuietHours string `json:"quiet_hours" yaml:"quiet_hours"`

	// NotificationLevel controls which events are dispatched: "all", "failure", "none".
	NotificationLevel string `json:"notification_level" yaml:"notification_level"`

	// Soundtrack GraphQL API
	SYBAPIURL string `json:"syb_api_url" yaml:"syb_api_url"`
	// SYBAPIKey is the pre-encoded Basic token of the PublicAPIClient service account.
	SYBAPIKey     string        `json:"syb_api_key" yaml:"syb_api_key"`
	SYBPageSize   int           `json:"syb_page_size" yaml:"syb_page_size"`
	SYBTimeout    time.Duration `json:"syb_timeout" yaml:"syb_timeout"`

	// WhatsApp Cloud API
	WhatsAppEnabled       bool     `json:"whatsapp_enabled" yaml:"whatsapp_enabled"`
	WhatsAppToken         string   `json:"whatsapp_token" yaml:"whatsapp_token"`
	WhatsAppPhoneNumberID string   `json:"whatsapp_phone_number_id" yaml:"whatsapp_phone_number_id"`
	WhatsAppTo            []string `json:"whatsapp_to" yaml:"whatsapp_to"`

	// Email (SMTP)
	EmailEnabled bool     `json:"email_enabled" yaml:"email_enabled"`
	EmailHost    string   `json:"email_host" yaml:"email_host"`
	EmailPort    int      `json:"email_port" yaml:"email_port"`
	EmailUser    string   `json:"email_user" yaml:"email_user"`
	EmailPass    string   `json:"email_pass" yaml:"email_pass"`
	EmailTo      []string `json:"email_to" yaml:"email_to"`

	// SMS (Twilio)
	SMSEnabled    bool     `json:"sms_enabled" yaml:"sms_enabled"`
	SMSAccountSID string   `json:"sms_account_sid" yaml:"sms_account_sid"`
	SMSAuthToken  string   `json:"sms_auth_token" yaml:"sms_auth_token"`
	SMSFrom       string   `json:"sms_from" yaml:"sms_from"`
	SMSTo         []string `json:"sms_to" yaml:"sms_to"`

	// Notification log (optional Postgres)
	DatabaseURL string `json:"database_url" yaml:"database_url"`

	// Metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	// InfluxDB (push)
	InfluxURL      string        `json:"influx_url" yaml:"influx_url"`
	InfluxToken    string        `json:"influx_token" yaml:"influx_token"`
	InfluxOrg      string        `json:"influx_org" yaml:"influx_org"`
	InfluxBucket   string        `json:"influx_bucket" yaml:"influx_bucket"`
	InfluxInterval time.Duration `json:"influx_interval" yaml:"influx_interval"`

	// Dry-run: discover and log the diff without dispatching notifications
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// parseWindow parses a "HH:MM-HH:MM" window into start/end minutes since
// midnight. ok is false for malformed or out-of-range values.
func parseWindow(window string) (startMinutes, endMinutes int, ok bool) {
	var sh, sm, eh, em int
	n, err := fmt.Sscanf(window, "%d:%d-%d:%d", &sh, &sm, &eh, &em)
	if err != nil || n != 4 || sh < 0 || sh > 23 || eh < 0 || eh > 23 || sm < 0 || sm > 59 || em < 0 || em > 59 {
		return 0, 0, false
	}
	return sh*60 + sm, eh*60 + em, true
}

// InQuietHours returns true when the provided time is inside the configured
// quiet-hours window. An empty window means never quiet.
func (c *Config) InQuietHours(now time.Time) bool {
	if c.QuietHours == "" {
		return false
	}
	startMinutes, endMinutes, ok := parseWindow(c.QuietHours)
	if !ok {
		// invalid window - be conservative and never suppress
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()

	if endMinutes > startMinutes {
		// Normal window (e.g., 01:00-06:00)
		return nowMinutes >= startMinutes && nowMinutes <= endMinutes
	}
	// Window wraps midnight (e.g., 22:00-07:00)
	return nowMinutes >= startMinutes || nowMinutes <= endMinutes
}

// WhatsAppConfigured reports whether the WhatsApp channel is enabled and
// carries the credentials it needs.
func (c *Config) WhatsAppConfigured() bool {
	return c.WhatsAppEnabled && c.WhatsAppToken != "" && c.WhatsAppPhoneNumberID != "" && len(c.WhatsAppTo) > 0
}

// EmailConfigured reports whether the email channel is enabled and usable.
func (c *Config) EmailConfigured() bool {
	return c.EmailEnabled && c.EmailHost != "" && len(c.EmailTo) > 0
}

// SMSConfigured reports whether the SMS channel is enabled and usable.
func (c *Config) SMSConfigured() bool {
	return c.SMSEnabled && c.SMSAccountSID != "" && c.SMSAuthToken != "" && c.SMSFrom != "" && len(c.SMSTo) > 0
}

// DefaultConfig returns a sane default configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      10 * time.Minute,
		QuietHours:        "",
		NotificationLevel: "all",

		SYBAPIURL:   "https://api.soundtrackyourbrand.com/v2",
		SYBPageSize: 50,
		SYBTimeout:  30 * time.Second,

		EmailPort: 587,

		// Metrics defaults (opt-in)
		MetricsEnabled: false,
		MetricsPort:    9090,

		InfluxInterval: 1 * time.Minute,

		DryRun: false,
	}
}

// Validate returns a list of non-fatal configuration warnings, such as
// incomplete channel credential combinations.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{c.SYBAPIKey == "", "no SYB API key configured; discovery will fail"},
		{c.WhatsAppEnabled && c.WhatsAppToken == "", "whatsapp enabled but token is missing"},
		{c.WhatsAppEnabled && c.WhatsAppPhoneNumberID == "", "whatsapp enabled but phone number ID is missing"},
		{c.WhatsAppEnabled && len(c.WhatsAppTo) == 0, "whatsapp enabled but no recipients configured"},
		{c.EmailEnabled && c.EmailHost == "", "email enabled but SMTP host is empty"},
		{c.EmailEnabled && len(c.EmailTo) == 0, "email enabled but no recipients configured (EmailTo)"},
		{c.EmailHost != "" && !c.EmailEnabled, "SMTP host configured but email channel is disabled"},
		{c.SMSEnabled && (c.SMSAccountSID == "" || c.SMSAuthToken == ""), "sms enabled but Twilio credentials are incomplete"},
		{c.SMSEnabled && c.SMSFrom == "", "sms enabled but no from-number configured"},
		{c.SMSEnabled && len(c.SMSTo) == 0, "sms enabled but no recipients configured"},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	if qh := validateQuietHours(c.QuietHours); qh != "" {
		warnings = append(warnings, qh)
	}
	return warnings
}

// validateQuietHours returns a warning string when the provided window is invalid, or empty when valid/empty.
func validateQuietHours(qh string) string {
	if qh == "" {
		return ""
	}
	if _, _, ok := parseWindow(qh); !ok {
		return fmt.Sprintf("invalid QuietHours format: %q (expected HH:MM-HH:MM)", qh)
	}
	return ""
}

// LoadConfigFromFile loads config from a YAML/JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
