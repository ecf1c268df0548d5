package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Settings holds the application configuration.
type Settings struct {
	// DataDir is the directory holding the year-keyed database files.
	DataDir string
	// UpcomingDays is how far ahead recurring reminders look.
	UpcomingDays int
	// AlertThreshold is the budget usage fraction that triggers a warning.
	AlertThreshold float64
}

// DefaultSettings returns the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		DataDir:        "$HOME/.local/share/pennybank",
		UpcomingDays:   7,
		AlertThreshold: 0.80,
	}
}

// LoadSettings loads configuration from Viper and environment variables.
// Precedence:
// 1. Viper configuration (from config file or PENNYBANK_ env vars)
// 2. Direct environment variables (PENNYBANK_DATA_DIR)
// 3. Default values
func LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	if v := viper.GetString("database.dir"); v != "" {
		settings.DataDir = v
	} else if v := os.Getenv("PENNYBANK_DATA_DIR"); v != "" {
		settings.DataDir = v
	}
	settings.DataDir = ExpandPath(settings.DataDir)

	if viper.IsSet("reminders.upcoming_days") {
		settings.UpcomingDays = viper.GetInt("reminders.upcoming_days")
	}
	if viper.IsSet("reminders.alert_threshold") {
		settings.AlertThreshold = viper.GetFloat64("reminders.alert_threshold")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate checks the settings for nonsense values.
func (s *Settings) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("database directory cannot be empty")
	}
	if s.UpcomingDays < 0 {
		return fmt.Errorf("reminders.upcoming_days cannot be negative")
	}
	if s.AlertThreshold < 0 || s.AlertThreshold > 1 {
		return fmt.Errorf("reminders.alert_threshold must be between 0 and 1")
	}
	return nil
}
