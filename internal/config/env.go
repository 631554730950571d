package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - ZONEWATCH_POLL_INTERVAL (duration, e.g. "10m")
// - ZONEWATCH_QUIET_HOURS (string, e.g. "22:00-07:00")
// - ZONEWATCH_NOTIFICATION_LEVEL ("all", "failure", "none")
// - ZONEWATCH_SYB_API_URL / ZONEWATCH_SYB_API_KEY / ZONEWATCH_SYB_TIMEOUT
// - ZONEWATCH_WHATSAPP_* / ZONEWATCH_EMAIL_* / ZONEWATCH_SMS_*
// - ZONEWATCH_DATABASE_URL (Postgres DSN for the notification log)
// - ZONEWATCH_METRICS_ENABLED / ZONEWATCH_METRICS_PORT
// - ZONEWATCH_INFLUX_URL / _TOKEN / _ORG / _BUCKET / _INTERVAL
func ApplyEnvOverrides(cfg *Config) error {
	if err := applyBasicEnv(cfg); err != nil {
		return err
	}
	if err := applySYBEnv(cfg); err != nil {
		return err
	}
	if err := applyWhatsAppEnv(cfg); err != nil {
		return err
	}
	if err := applyEmailEnv(cfg); err != nil {
		return err
	}
	if err := applySMSEnv(cfg); err != nil {
		return err
	}
	if err := applyMetricsEnv(cfg); err != nil {
		return err
	}
	if err := applyInfluxEnv(cfg); err != nil {
		return err
	}
	return nil
}

// applyBasicEnv consolidates poll interval, quiet hours and runtime flags
func applyBasicEnv(cfg *Config) error {
	if v := os.Getenv("ZONEWATCH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("ZONEWATCH_QUIET_HOURS"); v != "" {
		cfg.QuietHours = v
	}
	if v := os.Getenv("ZONEWATCH_NOTIFICATION_LEVEL"); v != "" {
		cfg.NotificationLevel = v
	}
	if v := os.Getenv("ZONEWATCH_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if err := setBoolEnv("ZONEWATCH_DRY_RUN", func(b bool) { cfg.DryRun = b }); err != nil {
		return err
	}
	return nil
}

// applySYBEnv consolidates GraphQL API env parsing
func applySYBEnv(cfg *Config) error {
	if v := os.Getenv("ZONEWATCH_SYB_API_URL"); v != "" {
		cfg.SYBAPIURL = v
	}
	if v := os.Getenv("ZONEWATCH_SYB_API_KEY"); v != "" {
		cfg.SYBAPIKey = v
	}
	if v := os.Getenv("ZONEWATCH_SYB_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_SYB_PAGE_SIZE: %w", err)
		}
		cfg.SYBPageSize = n
	}
	if v := os.Getenv("ZONEWATCH_SYB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_SYB_TIMEOUT: %w", err)
		}
		cfg.SYBTimeout = d
	}
	return nil
}

// applyWhatsAppEnv consolidates WhatsApp Cloud API env parsing
func applyWhatsAppEnv(cfg *Config) error {
	if err := setBoolEnv("ZONEWATCH_WHATSAPP_ENABLED", func(b bool) { cfg.WhatsAppEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("ZONEWATCH_WHATSAPP_TOKEN"); v != "" {
		cfg.WhatsAppToken = v
	}
	if v := os.Getenv("ZONEWATCH_WHATSAPP_PHONE_NUMBER_ID"); v != "" {
		cfg.WhatsAppPhoneNumberID = v
	}
	if v := os.Getenv("ZONEWATCH_WHATSAPP_TO"); v != "" {
		cfg.WhatsAppTo = splitList(v)
	}
	return nil
}

// applyEmailEnv consolidates email-related env parsing
func applyEmailEnv(cfg *Config) error {
	if err := setBoolEnv("ZONEWATCH_EMAIL_ENABLED", func(b bool) { cfg.EmailEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("ZONEWATCH_EMAIL_HOST"); v != "" {
		cfg.EmailHost = v
	}
	if v := os.Getenv("ZONEWATCH_EMAIL_USER"); v != "" {
		cfg.EmailUser = v
	}
	if v := os.Getenv("ZONEWATCH_EMAIL_PASS"); v != "" {
		cfg.EmailPass = v
	}
	if v := os.Getenv("ZONEWATCH_EMAIL_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_EMAIL_PORT: %w", err)
		}
		cfg.EmailPort = p
	}
	if v := os.Getenv("ZONEWATCH_EMAIL_TO"); v != "" {
		cfg.EmailTo = splitList(v)
	}
	return nil
}

// applySMSEnv consolidates Twilio env parsing
func applySMSEnv(cfg *Config) error {
	if err := setBoolEnv("ZONEWATCH_SMS_ENABLED", func(b bool) { cfg.SMSEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("ZONEWATCH_SMS_ACCOUNT_SID"); v != "" {
		cfg.SMSAccountSID = v
	}
	if v := os.Getenv("ZONEWATCH_SMS_AUTH_TOKEN"); v != "" {
		cfg.SMSAuthToken = v
	}
	if v := os.Getenv("ZONEWATCH_SMS_FROM"); v != "" {
		cfg.SMSFrom = v
	}
	if v := os.Getenv("ZONEWATCH_SMS_TO"); v != "" {
		cfg.SMSTo = splitList(v)
	}
	return nil
}

// applyMetricsEnv consolidates metrics-related env parsing
func applyMetricsEnv(cfg *Config) error {
	if err := setBoolEnv("ZONEWATCH_METRICS_ENABLED", func(b bool) { cfg.MetricsEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("ZONEWATCH_METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = p
	}
	return nil
}

// applyInfluxEnv consolidates Influx-related env parsing
func applyInfluxEnv(cfg *Config) error {
	if v := os.Getenv("ZONEWATCH_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("ZONEWATCH_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("ZONEWATCH_INFLUX_ORG"); v != "" {
		cfg.InfluxOrg = v
	}
	if v := os.Getenv("ZONEWATCH_INFLUX_BUCKET"); v != "" {
		cfg.InfluxBucket = v
	}
	if v := os.Getenv("ZONEWATCH_INFLUX_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEWATCH_INFLUX_INTERVAL: %w", err)
		}
		cfg.InfluxInterval = d
	}
	return nil
}

// setBoolEnv is a small helper to parse boolean environment variables
func setBoolEnv(env string, setter func(bool)) error {
	if v := os.Getenv(env); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		setter(b)
	}
	return nil
}

// splitList parses a comma-separated list, trimming whitespace around entries
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
