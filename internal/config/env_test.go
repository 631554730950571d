package config

import (
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ZONEWATCH_POLL_INTERVAL", "2m")
	t.Setenv("ZONEWATCH_QUIET_HOURS", "22:00-07:00")
	t.Setenv("ZONEWATCH_NOTIFICATION_LEVEL", "failure")
	t.Setenv("ZONEWATCH_SYB_API_KEY", "c2VjcmV0")
	t.Setenv("ZONEWATCH_SYB_PAGE_SIZE", "25")
	t.Setenv("ZONEWATCH_SMS_ENABLED", "true")
	t.Setenv("ZONEWATCH_SMS_ACCOUNT_SID", "AC1")
	t.Setenv("ZONEWATCH_SMS_AUTH_TOKEN", "tok")
	t.Setenv("ZONEWATCH_SMS_FROM", "+15550001111")
	t.Setenv("ZONEWATCH_SMS_TO", "+661, +662 ,+663")
	t.Setenv("ZONEWATCH_DRY_RUN", "true")

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if cfg.PollInterval != 2*time.Minute {
		t.Errorf("unexpected poll interval: %v", cfg.PollInterval)
	}
	if cfg.QuietHours != "22:00-07:00" {
		t.Errorf("unexpected quiet hours: %q", cfg.QuietHours)
	}
	if cfg.NotificationLevel != "failure" {
		t.Errorf("unexpected level: %q", cfg.NotificationLevel)
	}
	if cfg.SYBPageSize != 25 {
		t.Errorf("unexpected page size: %d", cfg.SYBPageSize)
	}
	if !cfg.SMSConfigured() {
		t.Error("expected SMS configured from env")
	}
	if len(cfg.SMSTo) != 3 || cfg.SMSTo[1] != "+662" {
		t.Errorf("list not trimmed/split correctly: %v", cfg.SMSTo)
	}
	if !cfg.DryRun {
		t.Error("expected dry-run enabled")
	}
}

func TestApplyEnvOverridesInvalidDuration(t *testing.T) {
	t.Setenv("ZONEWATCH_POLL_INTERVAL", "soon")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Fatal("expected an error for a bad duration")
	}
}

func TestApplyEnvOverridesInvalidBool(t *testing.T) {
	t.Setenv("ZONEWATCH_EMAIL_ENABLED", "yes please")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Fatal("expected an error for a bad boolean")
	}
}

func TestApplyEnvOverridesLeavesUnsetFieldsAlone(t *testing.T) {
	t.Setenv("ZONEWATCH_SYB_API_KEY", "only-this")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.SYBAPIKey != "only-this" {
		t.Errorf("override not applied: %q", cfg.SYBAPIKey)
	}
	if cfg.PollInterval != 10*time.Minute {
		t.Errorf("default clobbered: %v", cfg.PollInterval)
	}
}
