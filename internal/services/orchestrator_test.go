package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
	"memphis-weekend-events/internal/storage"
)

type stubWeatherFetcher struct {
	forecasts []models.DailyForecast
	err       error
}

func (s *stubWeatherFetcher) FetchForecasts(ctx context.Context, weekend dates.WeekendDates) ([]models.DailyForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.forecasts, nil
}

type stubClassifier struct {
	classification models.Classification
	failures       int
}

func (s *stubClassifier) AnalyzeEvents(ctx context.Context, events []models.Event) ([]models.Classification, int) {
	results := make([]models.Classification, len(events))
	for i := range results {
		results[i] = s.classification
	}
	return results, len(events) - s.failures
}

const listingFixture = "## FRIDAY\n" +
	"[Jazz Night, Railgarten, 7 p.m., $10](https://ilovememphisblog.com/events/music/jazz-night)\n" +
	"## SATURDAY\n" +
	"[Art Walk, South Main, 6 p.m., free](https://ilovememphisblog.com/events/arts/art-walk)\n"

type orchestratorFixture struct {
	orch     *Orchestrator
	events   *storage.MemoryEventStore
	weather  *storage.MemoryWeatherStore
	runLogs  *storage.MemoryRunLogStore
	weekend  dates.WeekendDates
}

func newOrchestratorFixture(t *testing.T, fetcher TextFetcher, weatherStub WeatherFetcher) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		events:  storage.NewMemoryEventStore(),
		weather: storage.NewMemoryWeatherStore(),
		runLogs: storage.NewMemoryRunLogStore(),
	}

	classifier := &stubClassifier{classification: models.Classification{
		IsIndoor:     false,
		IsOutdoor:    true,
		AudienceType: models.AudienceAllAges,
		Categories:   []string{"Music"},
		CostLevel:    models.CostCheap,
	}}

	f.orch = NewOrchestrator(
		fetcher, NewEventParser(), weatherStub, classifier, nil,
		f.events, f.weather, f.runLogs,
		"https://ilovememphisblog.com/weekend", config.DefaultScoringConfig(),
	)

	// Pin "now" to a Thursday morning so the weekend window is stable, and
	// shrink the retry delays so failure tests do not sleep.
	loc, err := time.LoadLocation(dates.Timezone)
	require.NoError(t, err)
	fixed := time.Date(2026, 8, 27, 10, 0, 0, 0, loc)
	f.orch.now = func() time.Time { return fixed }
	f.orch.retry = RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 1}
	f.weekend = dates.GetWeekendDates(fixed)
	return f
}

// flakyFetcher fails its first calls, then serves the page.
type flakyFetcher struct {
	failures int
	calls    int
	text     string
}

func (s *flakyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", &ExtractionError{URL: url, Message: "transient failure"}
	}
	return s.text, nil
}

func fixtureForecasts(weekend dates.WeekendDates) []models.DailyForecast {
	return []models.DailyForecast{
		{
			ForecastDate: weekend.Friday,
			DayName:      "Friday",
			TempHigh:     88, TempLow: 70,
			Conditions:          "clear sky",
			PrecipitationChance: 5,
			WindSpeed:           6,
			HourlyData: []models.HourlyForecast{
				{Time: "06:00 PM", Temp: 85, FeelsLike: 87, PrecipitationChance: 5, Conditions: "clear sky", WindSpeed: 6},
				{Time: "07:00 PM", Temp: 83, FeelsLike: 84, PrecipitationChance: 5, Conditions: "clear sky", WindSpeed: 5},
			},
		},
		{
			ForecastDate: weekend.Saturday,
			DayName:      "Saturday",
			TempHigh:     82, TempLow: 68,
			Conditions:          "light rain",
			PrecipitationChance: 60,
			WindSpeed:           8,
		},
	}
}

func TestOrchestratorRun(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://ilovememphisblog.com/weekend": listingFixture,
	}}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{forecasts: fixtureForecasts(f.weekend)}

	ctx := context.Background()
	summary, err := f.orch.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, summary.Status)
	assert.Equal(t, 2, summary.EventsFound)
	assert.Equal(t, 2, summary.EventsAnalyzed)
	assert.Equal(t, 2, summary.ForecastDays)

	// Every stored event carries classification and both scores.
	stored, err := f.events.Search(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, evt := range stored {
		require.NotNil(t, evt.IsOutdoor)
		assert.True(t, *evt.IsOutdoor)
		require.NotNil(t, evt.WeatherScore)
		require.NotNil(t, evt.RecommendationScore)
		require.NotNil(t, evt.AnalyzedAt)
		assert.GreaterOrEqual(t, *evt.RecommendationScore, 0)
		assert.LessOrEqual(t, *evt.RecommendationScore, 100)
	}

	// Friday 7 PM outdoor in perfect weather: full weather score.
	friday := stored[0]
	assert.Equal(t, f.weekend.Friday, friday.Date)
	assert.Equal(t, 100, *friday.WeatherScore)

	// Saturday outdoor in 60% rain: 100 - 40.
	saturday := stored[1]
	assert.Equal(t, 60, *saturday.WeatherScore)

	// The run log reached its terminal state.
	logs, err := f.runLogs.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.RunStatusSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].EventsFound)
}

func TestOrchestratorRunIdempotentTuples(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://ilovememphisblog.com/weekend": listingFixture,
	}}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{forecasts: fixtureForecasts(f.weekend)}

	ctx := context.Background()

	tuples := func() map[[3]string]int {
		events, err := f.events.Search(ctx, nil)
		require.NoError(t, err)
		out := make(map[[3]string]int)
		for _, e := range events {
			out[[3]string{e.Title, e.Date, e.StartTime}]++
		}
		return out
	}

	_, err := f.orch.Run(ctx)
	require.NoError(t, err)
	first := tuples()

	_, err = f.orch.Run(ctx)
	require.NoError(t, err)
	second := tuples()

	// Same (title, date, start_time) set each run; IDs differ, and without
	// retention expiry the second run doubles the counts.
	assert.Equal(t, len(first), len(second))
	for key := range first {
		assert.Contains(t, second, key)
	}
}

func TestOrchestratorWeatherFailureFailsRun(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://ilovememphisblog.com/weekend": listingFixture,
	}}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{err: &WeatherFetchError{StatusCode: 503, Message: "unavailable"}}

	ctx := context.Background()
	_, err := f.orch.Run(ctx)
	require.Error(t, err)

	var fetchErr *WeatherFetchError
	assert.ErrorAs(t, err, &fetchErr)

	logs, lerr := f.runLogs.Recent(ctx, 1)
	require.NoError(t, lerr)
	require.Len(t, logs, 1)
	assert.Equal(t, models.RunStatusFailed, logs[0].Status)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Contains(t, *logs[0].ErrorMessage, "weather fetch failed")
}

func TestOrchestratorRetriesScrape(t *testing.T) {
	fetcher := &flakyFetcher{failures: 1, text: listingFixture}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{forecasts: fixtureForecasts(f.weekend)}

	summary, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls, "first attempt fails, second succeeds")
	assert.Equal(t, 2, summary.EventsFound)
}

func TestOrchestratorExtractionFailureFailsRun(t *testing.T) {
	fetcher := &stubFetcher{err: &ExtractionError{URL: "u", Message: "all strategies failed"}}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{forecasts: fixtureForecasts(f.weekend)}

	_, err := f.orch.Run(context.Background())
	require.Error(t, err)

	logs, lerr := f.runLogs.Recent(context.Background(), 1)
	require.NoError(t, lerr)
	require.Len(t, logs, 1)
	assert.Equal(t, models.RunStatusFailed, logs[0].Status)
}

func TestOrchestratorCleanupRemovesStaleAndJunk(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://ilovememphisblog.com/weekend": listingFixture,
	}}
	f := newOrchestratorFixture(t, fetcher, nil)
	f.orch.weather = &stubWeatherFetcher{forecasts: fixtureForecasts(f.weekend)}

	ctx := context.Background()
	now := f.orch.now()

	stale := models.Event{EventID: "evt_stale", Title: "Old Concert", ScrapedAt: now.AddDate(0, 0, -10)}
	junk := models.Event{EventID: "evt_junk", Title: "Reply", ScrapedAt: now}
	fresh := models.Event{EventID: "evt_fresh", Title: "Recent Show", ScrapedAt: now.Add(-time.Hour), Date: f.weekend.Friday}
	require.NoError(t, f.events.Add(ctx, &stale))
	require.NoError(t, f.events.Add(ctx, &junk))
	require.NoError(t, f.events.Add(ctx, &fresh))

	summary, err := f.orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EventsCleaned)

	gone, err := f.events.GetByID(ctx, "evt_stale")
	require.NoError(t, err)
	assert.Nil(t, gone)
	gone, err = f.events.GetByID(ctx, "evt_junk")
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := f.events.GetByID(ctx, "evt_fresh")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
