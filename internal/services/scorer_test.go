package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/models"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestScorePureOutdoor(t *testing.T) {
	scorer := NewRecommendationScorer(config.DefaultScoringConfig())

	evt := &models.Event{
		StartTime:    "07:00 PM",
		IsOutdoor:    boolPtr(true),
		IsIndoor:     boolPtr(false),
		WeatherScore: intPtr(100),
	}
	// 100*0.70 + 30*0.30 = 79
	assert.Equal(t, 79, scorer.Score(evt))

	evt.WeatherScore = intPtr(0)
	evt.StartTime = "08:00 AM"
	// 0*0.70 + 10*0.30 = 3
	assert.Equal(t, 3, scorer.Score(evt))
}

func TestScorePureIndoor(t *testing.T) {
	scorer := NewRecommendationScorer(config.DefaultScoringConfig())

	evt := &models.Event{
		IsIndoor:     boolPtr(true),
		IsOutdoor:    boolPtr(false),
		WeatherScore: intPtr(90),
	}
	assert.Equal(t, 80, scorer.Score(evt))

	// Bad weather makes indoor relatively more attractive.
	evt.WeatherScore = intPtr(30)
	assert.Equal(t, 90, scorer.Score(evt))
}

func TestScoreMixed(t *testing.T) {
	scorer := NewRecommendationScorer(config.DefaultScoringConfig())

	evt := &models.Event{
		IsIndoor:     boolPtr(true),
		IsOutdoor:    boolPtr(true),
		WeatherScore: intPtr(100),
	}
	// 100*0.4 + 80*0.6 = 88
	assert.Equal(t, 88, scorer.Score(evt))
}

func TestScoreUnclassifiedDefaultsToIndoor(t *testing.T) {
	scorer := NewRecommendationScorer(config.DefaultScoringConfig())

	evt := &models.Event{StartTime: "07:00 PM"}
	// nil classification: indoor true, outdoor false, weather 50 -> baseline 80
	assert.Equal(t, 80, scorer.Score(evt))
}

func TestScoreRanges(t *testing.T) {
	scorer := NewRecommendationScorer(config.DefaultScoringConfig())

	times := []string{"08:00 AM", "11:00 AM", "03:00 PM", "07:00 PM", "10:00 PM", models.TBD}
	for _, indoor := range []bool{true, false} {
		for _, outdoor := range []bool{true, false} {
			for ws := 0; ws <= 100; ws += 25 {
				for _, startTime := range times {
					evt := &models.Event{
						StartTime:    startTime,
						IsIndoor:     boolPtr(indoor),
						IsOutdoor:    boolPtr(outdoor),
						WeatherScore: intPtr(ws),
					}
					score := scorer.Score(evt)
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
					if indoor && !outdoor {
						assert.Contains(t, []int{80, 90}, score,
							"pure indoor scores are always 80 or 90")
					}
				}
			}
		}
	}
}

func TestTimeOfDayBonus(t *testing.T) {
	tests := []struct {
		startTime string
		want      int
	}{
		{"05:00 PM", 30},
		{"08:00 PM", 30},
		{"03:00 PM", 20},
		{"09:30 PM", 20},
		{"11:00 AM", 15},
		{"08:00 AM", 10},
		{"11:30 PM", 10},
		{models.TBD, 15},
		{"whenever", 15},
	}
	for _, tt := range tests {
		t.Run(tt.startTime, func(t *testing.T) {
			assert.Equal(t, tt.want, timeOfDayBonus(tt.startTime))
		})
	}
}
