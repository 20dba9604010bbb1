package services

import (
	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
)

// RecommendationScorer blends weather suitability, venue type, and time of
// day into the final 0-100 recommendation score.
type RecommendationScorer struct {
	cfg config.ScoringConfig
}

// NewRecommendationScorer creates a scorer with the given thresholds.
func NewRecommendationScorer(cfg config.ScoringConfig) *RecommendationScorer {
	return &RecommendationScorer{cfg: cfg}
}

// Score computes the recommendation score for an event. Events the AI has
// not classified default to indoor; events without a weather score get the
// neutral 50.
func (s *RecommendationScorer) Score(evt *models.Event) int {
	weatherScore := s.cfg.NeutralWeatherScore
	if evt.WeatherScore != nil {
		weatherScore = *evt.WeatherScore
	}

	isOutdoor := evt.IsOutdoor != nil && *evt.IsOutdoor
	isIndoor := evt.IsIndoor == nil || *evt.IsIndoor

	var score float64
	switch {
	case isOutdoor && !isIndoor:
		bonus := timeOfDayBonus(evt.StartTime)
		score = float64(weatherScore)*s.cfg.OutdoorWeatherWeight + float64(bonus)*s.cfg.OutdoorTimeWeight
	case isIndoor && !isOutdoor:
		score = float64(s.cfg.IndoorBaseline)
		if weatherScore < s.cfg.NeutralWeatherScore {
			score += float64(s.cfg.IndoorBadWeatherBoost)
		}
	default:
		// Both or neither set: treat as mixed.
		score = float64(weatherScore)*s.cfg.MixedWeatherWeight +
			float64(s.cfg.IndoorBaseline)*(1-s.cfg.MixedWeatherWeight)
	}

	return clampScore(int(score))
}

// timeOfDayBonus rewards evening activity. An unparseable or TBD start time
// gets the neutral bonus.
func timeOfDayBonus(startTime string) int {
	hour := dates.ParseTimeToHour(startTime)
	if hour < 0 {
		return 15
	}
	switch {
	case hour >= 17 && hour < 21:
		return 30
	case hour >= 14 && hour < 17, hour >= 21 && hour < 23:
		return 20
	case hour >= 10 && hour < 14:
		return 15
	}
	return 10
}
