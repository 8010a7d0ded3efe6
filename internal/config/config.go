package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// NotificationPreferences mirrors the account's notification settings. The
// client carries these explicitly instead of fetching and merging an ad-hoc
// settings object; the backend is what acts on them.
type NotificationPreferences struct {
	Enabled          bool `yaml:"enabled"`
	HighPriority     bool `yaml:"highPriority"`
	MediumPriority   bool `yaml:"mediumPriority"`
	LowPriority      bool `yaml:"lowPriority"`
	ReminderHours    int  `yaml:"reminderHours"`
	DailyDigest      bool `yaml:"dailyDigest"`
	OverdueReminders bool `yaml:"overdueReminders"`
}

// DefaultNotificationPreferences returns the documented defaults: reminders
// on for high and medium priority, 24 hours ahead, with daily digest and
// overdue reminders enabled.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Enabled:          true,
		HighPriority:     true,
		MediumPriority:   true,
		LowPriority:      false,
		ReminderHours:    24,
		DailyDigest:      true,
		OverdueReminders: true,
	}
}

// Config holds client configuration
type Config struct {
	APIBaseURL         string
	SocketURL          string
	Token              string
	RequestTimeout     time.Duration
	ReconnectAttempts  int
	ReconnectBaseDelay time.Duration
	DebugMode          bool
	OTELEnabled        bool
	OTELEndpoint       string
	Notifications      NotificationPreferences
}

// Load loads configuration from environment variables plus an optional YAML
// preferences file named by TASKDECK_CONFIG.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:         getEnv("TASKDECK_API_URL", "http://localhost:5000"),
		SocketURL:          getEnv("TASKDECK_SOCKET_URL", "ws://localhost:5000/ws"),
		Token:              getEnv("TASKDECK_TOKEN", ""),
		RequestTimeout:     getEnvDuration("TASKDECK_REQUEST_TIMEOUT", 15*time.Second),
		ReconnectAttempts:  getEnvInt("TASKDECK_RECONNECT_ATTEMPTS", 5),
		ReconnectBaseDelay: getEnvDuration("TASKDECK_RECONNECT_BASE_DELAY", time.Second),
		DebugMode:          getEnvBool("TASKDECK_DEBUG", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Notifications:      DefaultNotificationPreferences(),
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("TASKDECK_TOKEN is required (bearer credential for the task backend)")
	}

	if path := os.Getenv("TASKDECK_CONFIG"); path != "" {
		if err := cfg.loadPreferences(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadPreferences overlays the notification preferences block from a YAML
// file over the defaults.
func (c *Config) loadPreferences(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file struct {
		Notifications NotificationPreferences `yaml:"notifications"`
	}
	file.Notifications = c.Notifications
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Notifications = file.Notifications
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
