package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("PENNYBANK_DATA_DIR", "")

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Contains(t, settings.DataDir, ".local/share/pennybank")
	assert.Equal(t, 7, settings.UpcomingDays)
	assert.InDelta(t, 0.80, settings.AlertThreshold, 0.001)
}

func TestLoadSettingsFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.dir", "/tmp/pb")
	viper.Set("reminders.upcoming_days", 14)
	viper.Set("reminders.alert_threshold", 0.9)

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pb", settings.DataDir)
	assert.Equal(t, 14, settings.UpcomingDays)
	assert.InDelta(t, 0.9, settings.AlertThreshold, 0.001)
}

func TestLoadSettingsEnvFallback(t *testing.T) {
	viper.Reset()
	t.Setenv("PENNYBANK_DATA_DIR", "/var/lib/pennybank")

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pennybank", settings.DataDir)
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	s.AlertThreshold = 1.5
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.UpcomingDays = -1
	assert.Error(t, s.Validate())
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/data", ExpandPath("~/data"))
	assert.Equal(t, "/home/tester/data", ExpandPath("$HOME/data"))
	assert.Equal(t, "", ExpandPath(""))
}
