// Package config loads environment configuration and holds the immutable
// scoring thresholds shared by the matcher and scorer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Memphis, TN
const (
	DefaultLatitude  = 35.1495
	DefaultLongitude = -90.0490
	DefaultSourceURL = "https://ilovememphisblog.com/weekend"
)

// ConfigurationError signals a missing secret or setting.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration value %s is not set", e.Name)
}

// Config holds everything read from the environment.
type Config struct {
	FirecrawlAPIKey   string
	OpenWeatherAPIKey string
	OpenAIAPIKey      string

	SourceURL string
	Latitude  float64
	Longitude float64

	EventsTable  string
	WeatherTable string
	RunLogsTable string
	S3Bucket     string

	RefreshCron         string
	RefreshFunctionName string
	HTTPPort            int

	OpenAIModel       string
	OpenAITemperature float32
	OpenAIMaxTokens   int

	Scoring ScoringConfig
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		FirecrawlAPIKey:   os.Getenv("FIRECRAWL_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),

		SourceURL: getEnv("SOURCE_URL", DefaultSourceURL),
		Latitude:  getEnvFloat("WEATHER_LATITUDE", DefaultLatitude),
		Longitude: getEnvFloat("WEATHER_LONGITUDE", DefaultLongitude),

		EventsTable:  getEnv("EVENTS_TABLE", "weekend-events"),
		WeatherTable: getEnv("WEATHER_TABLE", "weekend-weather"),
		RunLogsTable: getEnv("RUN_LOGS_TABLE", "weekend-run-logs"),
		S3Bucket:     os.Getenv("EVENTS_BUCKET"),

		RefreshCron:         getEnv("REFRESH_CRON", "0 6 * * *"),
		RefreshFunctionName: os.Getenv("REFRESH_FUNCTION_NAME"),
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),

		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAITemperature: 0.3,
		OpenAIMaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 500),

		Scoring: DefaultScoringConfig(),
	}
}

// GetSecret returns a required value or a ConfigurationError when absent.
func GetSecret(name string) (string, error) {
	if val := os.Getenv(name); val != "" {
		return val, nil
	}
	return "", &ConfigurationError{Name: name}
}

// ScoringConfig carries every threshold the matcher and scorer use. It is
// built once and passed in at construction so tests can vary thresholds.
type ScoringConfig struct {
	// Precipitation-chance tiers (percent). Medium and High share the same
	// value in the production config, which leaves the medium penalty tier
	// mostly unreachable; the value is kept as configured.
	PrecipLow    int
	PrecipMedium int
	PrecipHigh   int

	// Feels-like temperature bounds (Fahrenheit)
	TempVeryCold int
	TempCold     int
	TempHot      int
	TempVeryHot  int

	// Wind speed bounds (mph)
	WindStrong   int
	WindModerate int

	// Penalty magnitudes
	PenaltyPrecipHigh   int
	PenaltyPrecipMedium int
	PenaltyPrecipLow    int
	PenaltyTempExtreme  int
	PenaltyTempPoor     int
	PenaltyWindStrong   int
	PenaltyWindModerate int

	// Recommendation weights
	OutdoorWeatherWeight  float64
	OutdoorTimeWeight     float64
	MixedWeatherWeight    float64
	IndoorBaseline        int
	IndoorBadWeatherBoost int

	// Indoor-only events ignore conditions entirely.
	IndoorFlatScore int

	// Neutral score when no forecast matched an event.
	NeutralWeatherScore int

	// Retention windows for cleanup
	EventRetention   time.Duration
	WeatherRetention time.Duration
	LogRetention     time.Duration
}

// DefaultScoringConfig returns the production thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PrecipLow:    20,
		PrecipMedium: 50,
		PrecipHigh:   50,

		TempVeryCold: 40,
		TempCold:     50,
		TempHot:      85,
		TempVeryHot:  95,

		WindStrong:   20,
		WindModerate: 10,

		PenaltyPrecipHigh:   40,
		PenaltyPrecipMedium: 20,
		PenaltyPrecipLow:    10,
		PenaltyTempExtreme:  30,
		PenaltyTempPoor:     15,
		PenaltyWindStrong:   15,
		PenaltyWindModerate: 5,

		OutdoorWeatherWeight:  0.70,
		OutdoorTimeWeight:     0.30,
		MixedWeatherWeight:    0.40,
		IndoorBaseline:        80,
		IndoorBadWeatherBoost: 10,

		IndoorFlatScore:     90,
		NeutralWeatherScore: 50,

		EventRetention:   7 * 24 * time.Hour,
		WeatherRetention: 3 * 24 * time.Hour,
		LogRetention:     30 * 24 * time.Hour,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
