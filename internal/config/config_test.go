package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultSourceURL, cfg.SourceURL)
	assert.Equal(t, DefaultLatitude, cfg.Latitude)
	assert.Equal(t, DefaultLongitude, cfg.Longitude)
	assert.Equal(t, "weekend-events", cfg.EventsTable)
	assert.Equal(t, "weekend-weather", cfg.WeatherTable)
	assert.Equal(t, "weekend-run-logs", cfg.RunLogsTable)
	assert.Equal(t, "0 6 * * *", cfg.RefreshCron)
	assert.Empty(t, cfg.RefreshFunctionName, "optional, empty unless configured")
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, 500, cfg.OpenAIMaxTokens)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOURCE_URL", "https://example.com/listing")
	t.Setenv("WEATHER_LATITUDE", "36.1627")
	t.Setenv("EVENTS_TABLE", "staging-events")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REFRESH_FUNCTION_NAME", "weekend-refresh")
	t.Setenv("OPENAI_MAX_TOKENS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "https://example.com/listing", cfg.SourceURL)
	assert.Equal(t, 36.1627, cfg.Latitude)
	assert.Equal(t, "staging-events", cfg.EventsTable)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "weekend-refresh", cfg.RefreshFunctionName)
	assert.Equal(t, 500, cfg.OpenAIMaxTokens, "unparseable values fall back to the default")
}

func TestGetSecret(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test")

	val, err := GetSecret("TEST_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", val)

	_, err = GetSecret("TEST_MISSING_KEY")
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "TEST_MISSING_KEY", cfgErr.Name)
}

func TestDefaultScoringConfig(t *testing.T) {
	cfg := DefaultScoringConfig()

	assert.Equal(t, 0.70, cfg.OutdoorWeatherWeight)
	assert.Equal(t, 0.30, cfg.OutdoorTimeWeight)
	assert.InDelta(t, 1.0, cfg.OutdoorWeatherWeight+cfg.OutdoorTimeWeight, 1e-9)
	assert.Equal(t, 90, cfg.IndoorFlatScore)
	assert.Equal(t, 50, cfg.NeutralWeatherScore)
	assert.Greater(t, cfg.LogRetention, cfg.EventRetention)
	assert.Greater(t, cfg.EventRetention, cfg.WeatherRetention)
}
