package services

import (
	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
)

// WeatherMatcher reconciles event times against hourly forecasts and turns
// the matched conditions into a 0-100 suitability score. Thresholds come
// from the immutable ScoringConfig handed in at construction.
type WeatherMatcher struct {
	forecasts map[string]models.DailyForecast // keyed by date
	cfg       config.ScoringConfig
}

// NewWeatherMatcher indexes the given forecasts by date.
func NewWeatherMatcher(forecasts []models.DailyForecast, cfg config.ScoringConfig) *WeatherMatcher {
	byDate := make(map[string]models.DailyForecast, len(forecasts))
	for _, f := range forecasts {
		byDate[f.ForecastDate] = f
	}
	return &WeatherMatcher{forecasts: byDate, cfg: cfg}
}

// MatchWeather finds the forecast snapshot for an event's date and time.
// A nil return means no forecast data exists for the date; callers treat
// that as "no data", not an error.
func (m *WeatherMatcher) MatchWeather(date, eventTime string) *models.WeatherSnapshot {
	daily, ok := m.forecasts[date]
	if !ok {
		return nil
	}

	if eventTime != "" && eventTime != models.TBD {
		// Exact (date, time) lookup first.
		for _, h := range daily.HourlyData {
			if h.Time == eventTime {
				return hourlySnapshot(h)
			}
		}

		// Nearest-hour fallback: first-found wins ties.
		if eventHour := dates.ParseTimeToHour(eventTime); eventHour >= 0 {
			bestDiff := -1
			var best *models.HourlyForecast
			for i := range daily.HourlyData {
				h := &daily.HourlyData[i]
				forecastHour := dates.ParseTimeToHour(h.Time)
				if forecastHour < 0 {
					continue
				}
				diff := absInt(forecastHour - eventHour)
				if bestDiff < 0 || diff < bestDiff {
					bestDiff = diff
					best = h
				}
			}
			if best != nil {
				return hourlySnapshot(*best)
			}
		}
	}

	return &models.WeatherSnapshot{
		Temp:                daily.TempHigh,
		FeelsLike:           daily.TempHigh,
		PrecipitationChance: daily.PrecipitationChance,
		Conditions:          daily.Conditions,
		WindSpeed:           daily.WindSpeed,
		IsHourly:            false,
	}
}

func hourlySnapshot(h models.HourlyForecast) *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		Temp:                h.Temp,
		FeelsLike:           h.FeelsLike,
		PrecipitationChance: h.PrecipitationChance,
		Conditions:          h.Conditions,
		WindSpeed:           h.WindSpeed,
		IsHourly:            true,
	}
}

// CalculateWeatherScore computes the 0-100 suitability score for an event
// given its matched conditions. Indoor-only events score a flat 90
// regardless of weather. Outdoor events start at 100 and take cumulative
// precipitation, feels-like temperature, and wind penalties.
func (m *WeatherMatcher) CalculateWeatherScore(snapshot *models.WeatherSnapshot, isOutdoor bool) int {
	if !isOutdoor {
		return m.cfg.IndoorFlatScore
	}

	score := 100

	precip := snapshot.PrecipitationChance
	switch {
	case precip > m.cfg.PrecipHigh:
		score -= m.cfg.PenaltyPrecipHigh
	case precip > m.cfg.PrecipMedium:
		score -= m.cfg.PenaltyPrecipMedium
	case precip > m.cfg.PrecipLow:
		score -= m.cfg.PenaltyPrecipLow
	}

	feels := snapshot.FeelsLike
	switch {
	case feels < m.cfg.TempVeryCold:
		score -= m.cfg.PenaltyTempExtreme
	case feels < m.cfg.TempCold:
		score -= m.cfg.PenaltyTempPoor
	case feels > m.cfg.TempVeryHot:
		score -= m.cfg.PenaltyTempExtreme
	case feels > m.cfg.TempHot:
		score -= m.cfg.PenaltyTempPoor
	}

	wind := snapshot.WindSpeed
	switch {
	case wind > m.cfg.WindStrong:
		score -= m.cfg.PenaltyWindStrong
	case wind > m.cfg.WindModerate:
		score -= m.cfg.PenaltyWindModerate
	}

	return clampScore(score)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
