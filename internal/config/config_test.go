package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TASKDECK_API_URL", "TASKDECK_SOCKET_URL", "TASKDECK_TOKEN",
		"TASKDECK_REQUEST_TIMEOUT", "TASKDECK_RECONNECT_ATTEMPTS",
		"TASKDECK_RECONNECT_BASE_DELAY", "TASKDECK_DEBUG",
		"TASKDECK_CONFIG", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_RequiresToken(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when TASKDECK_TOKEN is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKDECK_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SocketURL != "ws://localhost:5000/ws" {
		t.Errorf("SocketURL = %q", cfg.SocketURL)
	}
	if cfg.ReconnectAttempts != 5 || cfg.ReconnectBaseDelay != time.Second {
		t.Errorf("reconnect policy = %d/%v, want 5/1s", cfg.ReconnectAttempts, cfg.ReconnectBaseDelay)
	}
	prefs := cfg.Notifications
	if !prefs.Enabled || !prefs.HighPriority || !prefs.MediumPriority || prefs.LowPriority {
		t.Errorf("unexpected default preferences: %+v", prefs)
	}
	if prefs.ReminderHours != 24 {
		t.Errorf("ReminderHours = %d, want 24", prefs.ReminderHours)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKDECK_TOKEN", "tok")
	t.Setenv("TASKDECK_API_URL", "https://tasks.example.com")
	t.Setenv("TASKDECK_RECONNECT_ATTEMPTS", "9")
	t.Setenv("TASKDECK_RECONNECT_BASE_DELAY", "250ms")
	t.Setenv("TASKDECK_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://tasks.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.ReconnectAttempts != 9 {
		t.Errorf("ReconnectAttempts = %d", cfg.ReconnectAttempts)
	}
	if cfg.ReconnectBaseDelay != 250*time.Millisecond {
		t.Errorf("ReconnectBaseDelay = %v", cfg.ReconnectBaseDelay)
	}
	if !cfg.DebugMode {
		t.Error("DebugMode should be true")
	}
}

func TestLoad_PreferencesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKDECK_TOKEN", "tok")

	path := filepath.Join(t.TempDir(), "taskdeck.yaml")
	body := `
notifications:
  enabled: true
  highPriority: true
  mediumPriority: false
  lowPriority: true
  reminderHours: 48
  dailyDigest: false
  overdueReminders: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TASKDECK_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	prefs := cfg.Notifications
	if prefs.MediumPriority || !prefs.LowPriority {
		t.Errorf("priority toggles not applied: %+v", prefs)
	}
	if prefs.ReminderHours != 48 {
		t.Errorf("ReminderHours = %d, want 48", prefs.ReminderHours)
	}
	if prefs.DailyDigest {
		t.Error("DailyDigest should be false")
	}
}

func TestLoad_BadPreferencesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKDECK_TOKEN", "tok")
	t.Setenv("TASKDECK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
