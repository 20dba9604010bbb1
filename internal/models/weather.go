package models

import "time"

// DailyForecast is one row per calendar date within the weekend window.
// A refresh clears all prior rows before inserting new ones, so at most
// one row exists per forecast_date.
type DailyForecast struct {
	ForecastDate        string           `json:"forecast_date" dynamodbav:"forecast_date"` // YYYY-MM-DD
	DayName             string           `json:"day_name" dynamodbav:"day_name"`           // Friday, Saturday, Sunday
	TempHigh            int              `json:"temp_high" dynamodbav:"temp_high"`
	TempLow             int              `json:"temp_low" dynamodbav:"temp_low"`
	Conditions          string           `json:"conditions" dynamodbav:"conditions"`
	PrecipitationChance int              `json:"precipitation_chance" dynamodbav:"precipitation_chance"`
	WindSpeed           int              `json:"wind_speed" dynamodbav:"wind_speed"`
	Humidity            int              `json:"humidity" dynamodbav:"humidity"`
	HourlyData          []HourlyForecast `json:"hourly_data" dynamodbav:"hourly_data"`
	FetchedAt           time.Time        `json:"fetched_at" dynamodbav:"fetched_at"`
}

// HourlyForecast is a single hour belonging to one DailyForecast.
type HourlyForecast struct {
	Time                string `json:"time" dynamodbav:"time"` // "03:00 PM"
	Temp                int    `json:"temp" dynamodbav:"temp"`
	FeelsLike           int    `json:"feels_like" dynamodbav:"feels_like"`
	PrecipitationChance int    `json:"precipitation_chance" dynamodbav:"precipitation_chance"`
	Conditions          string `json:"conditions" dynamodbav:"conditions"`
	WindSpeed           int    `json:"wind_speed" dynamodbav:"wind_speed"`
	Humidity            int    `json:"humidity" dynamodbav:"humidity"`
	UVIndex             float64 `json:"uv_index" dynamodbav:"uv_index"`
}

// PeriodForecast summarizes one time period (morning/afternoon/evening) of a day.
type PeriodForecast struct {
	TempAvg             int    `json:"temp_avg"`
	TempHigh            int    `json:"temp_high"`
	TempLow             int    `json:"temp_low"`
	FeelsLikeAvg        int    `json:"feels_like_avg"`
	PrecipitationChance int    `json:"precipitation_chance"` // max over the period
	Conditions          string `json:"conditions"`           // most frequent
	HourCount           int    `json:"hour_count"`
}

// WeatherSnapshot is the matcher's answer for one event: either an exact or
// nearest hourly record, or the daily aggregates when no hour matched.
type WeatherSnapshot struct {
	Temp                int    `json:"temp"`
	FeelsLike           int    `json:"feels_like"`
	PrecipitationChance int    `json:"precipitation_chance"`
	Conditions          string `json:"conditions"`
	WindSpeed           int    `json:"wind_speed"`
	IsHourly            bool   `json:"is_hourly"`
}

// DailySummary is the query-surface view of a forecast with period breakdowns.
// Periods already elapsed today are nil.
type DailySummary struct {
	ForecastDate        string          `json:"forecast_date"`
	DayName             string          `json:"day_name"`
	TempHigh            int             `json:"temp_high"`
	TempLow             int             `json:"temp_low"`
	Conditions          string          `json:"conditions"`
	PrecipitationChance int             `json:"precipitation_chance"`
	WindSpeed           int             `json:"wind_speed"`
	Morning             *PeriodForecast `json:"morning"`
	Afternoon           *PeriodForecast `json:"afternoon"`
	Evening             *PeriodForecast `json:"evening"`
}
