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

type queryFixture struct {
	svc     *QueryService
	events  *storage.MemoryEventStore
	weather *storage.MemoryWeatherStore
	runLogs *storage.MemoryRunLogStore
}

// newQueryFixture pins the clock to Thursday 2026-08-27 at the given hour so
// the weekend dates 08-28 through 08-30 are always in the future.
func newQueryFixture(t *testing.T, hour int, refresh func(ctx context.Context) (*RunSummary, error)) *queryFixture {
	t.Helper()

	f := &queryFixture{
		events:  storage.NewMemoryEventStore(),
		weather: storage.NewMemoryWeatherStore(),
		runLogs: storage.NewMemoryRunLogStore(),
	}
	f.svc = NewQueryService(f.events, f.weather, f.runLogs, config.DefaultScoringConfig(), refresh)

	loc, err := time.LoadLocation(dates.Timezone)
	require.NoError(t, err)
	fixed := time.Date(2026, 8, 27, hour, 0, 0, 0, loc)
	f.svc.now = func() time.Time { return fixed }
	return f
}

func (f *queryFixture) addEvent(t *testing.T, evt models.Event) {
	t.Helper()
	require.NoError(t, f.events.Add(context.Background(), &evt))
}

func TestGetAllEventsSortsByRecommendation(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	f.addEvent(t, models.Event{EventID: "evt_a", Title: "A", Date: "2026-08-28", RecommendationScore: intPtr(60)})
	f.addEvent(t, models.Event{EventID: "evt_b", Title: "B", Date: "2026-08-28", RecommendationScore: intPtr(92)})
	f.addEvent(t, models.Event{EventID: "evt_c", Title: "C", Date: "2026-08-29"})
	f.addEvent(t, models.Event{EventID: "evt_d", Title: "D", Date: "2026-08-29", RecommendationScore: intPtr(75)})

	views, err := f.svc.GetAllEvents(context.Background(), SortByRecommendation)
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "B", views[0].Title)
	assert.Equal(t, "D", views[1].Title)
	assert.Equal(t, "A", views[2].Title)
	assert.Equal(t, "C", views[3].Title, "unscored events sort last")
}

func TestGetAllEventsSortsByTime(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	f.addEvent(t, models.Event{EventID: "evt_a", Title: "Sat early", Date: "2026-08-29", StartTime: "10:00 AM"})
	f.addEvent(t, models.Event{EventID: "evt_b", Title: "Fri late", Date: "2026-08-28", StartTime: "09:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_c", Title: "Fri TBD", Date: "2026-08-28", StartTime: models.TBD})
	f.addEvent(t, models.Event{EventID: "evt_d", Title: "Fri noon", Date: "2026-08-28", StartTime: "12:00 PM"})

	views, err := f.svc.GetAllEvents(context.Background(), SortByTime)
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "Fri noon", views[0].Title)
	assert.Equal(t, "Fri late", views[1].Title)
	assert.Equal(t, "Fri TBD", views[2].Title, "TBD sorts last within the day")
	assert.Equal(t, "Sat early", views[3].Title)
}

func TestGetAllEventsSortsByCost(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	f.addEvent(t, models.Event{EventID: "evt_a", Title: "Pricey", Date: "2026-08-28", CostLevel: models.CostExpensive})
	f.addEvent(t, models.Event{EventID: "evt_b", Title: "Free", Date: "2026-08-28", CostLevel: models.CostFree})
	f.addEvent(t, models.Event{EventID: "evt_c", Title: "Cheap", Date: "2026-08-28", CostLevel: models.CostCheap})

	views, err := f.svc.GetAllEvents(context.Background(), SortByCost)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "Free", views[0].Title)
	assert.Equal(t, "Cheap", views[1].Title)
	assert.Equal(t, "Pricey", views[2].Title)
}

func TestFutureOnlyFiltering(t *testing.T) {
	f := newQueryFixture(t, 15, nil) // 3 PM Thursday
	f.addEvent(t, models.Event{EventID: "evt_past", Title: "Last week", Date: "2026-08-21", StartTime: "07:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_dateless", Title: "No date", StartTime: "07:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_started", Title: "Today started", Date: "2026-08-27", StartTime: "12:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_tonight", Title: "Tonight", Date: "2026-08-27", StartTime: "07:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_today_tbd", Title: "Today TBD", Date: "2026-08-27", StartTime: models.TBD})
	f.addEvent(t, models.Event{EventID: "evt_friday", Title: "Friday", Date: "2026-08-28", StartTime: "07:00 PM"})

	views, err := f.svc.GetAllEvents(context.Background(), SortByTime)
	require.NoError(t, err)

	titles := make([]string, 0, len(views))
	for _, v := range views {
		titles = append(titles, v.Title)
	}
	assert.ElementsMatch(t, []string{"Tonight", "Today TBD", "Friday"}, titles)
}

func TestFutureOnlyComparesMinutes(t *testing.T) {
	f := newQueryFixture(t, 15, nil)
	loc, err := time.LoadLocation(dates.Timezone)
	require.NoError(t, err)
	// 3:45 PM, partway through the hour.
	fixed := time.Date(2026, 8, 27, 15, 45, 0, 0, loc)
	f.svc.now = func() time.Time { return fixed }

	f.addEvent(t, models.Event{EventID: "evt_started", Title: "Started at three", Date: "2026-08-27", StartTime: "03:00 PM"})
	f.addEvent(t, models.Event{EventID: "evt_soon", Title: "Ten to four", Date: "2026-08-27", StartTime: "03:50 PM"})

	views, err := f.svc.GetAllEvents(context.Background(), SortByTime)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Ten to four", views[0].Title)
}

func TestFutureOnlyHidesTimelessTodayInEvening(t *testing.T) {
	f := newQueryFixture(t, 19, nil) // 7 PM Thursday
	f.addEvent(t, models.Event{EventID: "evt_today_tbd", Title: "Today TBD", Date: "2026-08-27", StartTime: models.TBD})
	f.addEvent(t, models.Event{EventID: "evt_tonight", Title: "Tonight", Date: "2026-08-27", StartTime: "09:00 PM"})

	views, err := f.svc.GetAllEvents(context.Background(), SortByTime)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Tonight", views[0].Title)
}

func TestSearchEventsMatchesText(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	f.addEvent(t, models.Event{EventID: "evt_a", Title: "Jazz Night", Date: "2026-08-28", Location: "Railgarten"})
	f.addEvent(t, models.Event{EventID: "evt_b", Title: "Art Walk", Date: "2026-08-29", Location: "South Main"})

	views, err := f.svc.SearchEvents(context.Background(), "jazz", nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Jazz Night", views[0].Title)

	views, err = f.svc.SearchEvents(context.Background(), "south main", nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Art Walk", views[0].Title)
}

func TestWeatherWarningsOnOutdoorEvents(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, f.weather.ReplaceAll(ctx, []models.DailyForecast{
		{ForecastDate: "2026-08-28", DayName: "Friday", TempHigh: 88, TempLow: 70, PrecipitationChance: 80, WindSpeed: 5},
		{ForecastDate: "2026-08-29", DayName: "Saturday", TempHigh: 98, TempLow: 74, PrecipitationChance: 10, WindSpeed: 5},
	}))

	f.addEvent(t, models.Event{EventID: "evt_out_fri", Title: "Outdoor Friday", Date: "2026-08-28", IsOutdoor: boolPtr(true)})
	f.addEvent(t, models.Event{EventID: "evt_in_fri", Title: "Indoor Friday", Date: "2026-08-28", IsOutdoor: boolPtr(false)})
	f.addEvent(t, models.Event{EventID: "evt_out_sat", Title: "Outdoor Saturday", Date: "2026-08-29", IsOutdoor: boolPtr(true)})

	views, err := f.svc.GetAllEvents(ctx, SortByTime)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byTitle := make(map[string]EventView)
	for _, v := range views {
		byTitle[v.Title] = v
	}
	assert.Equal(t, "High chance of rain (80%)", byTitle["Outdoor Friday"].WeatherWarning)
	assert.Empty(t, byTitle["Indoor Friday"].WeatherWarning)
	assert.Equal(t, "Extreme heat expected (98°F)", byTitle["Outdoor Saturday"].WeatherWarning)
}

func TestGetWeatherDataElapsedPeriods(t *testing.T) {
	f := newQueryFixture(t, 14, nil) // 2 PM Thursday, morning has passed
	ctx := context.Background()

	require.NoError(t, f.weather.ReplaceAll(ctx, []models.DailyForecast{
		{
			ForecastDate:        "2026-08-27",
			DayName:             "Thursday",
			TempHigh:            90,
			TempLow:             72,
			Conditions:          "light rain",
			PrecipitationChance: 80,
			HourlyData: []models.HourlyForecast{
				{Time: "09:00 AM", Temp: 76, FeelsLike: 78, PrecipitationChance: 80, Conditions: "light rain"},
				{Time: "02:00 PM", Temp: 88, FeelsLike: 92, PrecipitationChance: 10, Conditions: "clear sky"},
				{Time: "04:00 PM", Temp: 89, FeelsLike: 93, PrecipitationChance: 10, Conditions: "clear sky"},
				{Time: "07:00 PM", Temp: 82, FeelsLike: 84, PrecipitationChance: 20, Conditions: "few clouds"},
			},
		},
		{
			ForecastDate:        "2026-08-28",
			DayName:             "Friday",
			TempHigh:            88,
			TempLow:             70,
			Conditions:          "clear sky",
			PrecipitationChance: 5,
			HourlyData: []models.HourlyForecast{
				{Time: "10:00 AM", Temp: 78, FeelsLike: 80, PrecipitationChance: 5, Conditions: "clear sky"},
			},
		},
	}))

	summaries, err := f.svc.GetWeatherData(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	today := summaries[0]
	assert.Nil(t, today.Morning, "morning has already elapsed")
	require.NotNil(t, today.Afternoon)
	require.NotNil(t, today.Evening)
	assert.Equal(t, 20, today.PrecipitationChance, "headline recomputed from remaining periods")
	assert.Equal(t, "clear sky", today.Conditions)

	friday := summaries[1]
	require.NotNil(t, friday.Morning)
	assert.Nil(t, friday.Afternoon, "no afternoon hours in the fixture")
	assert.Equal(t, 5, friday.PrecipitationChance)
}

func TestTriggerRefresh(t *testing.T) {
	t.Run("not wired", func(t *testing.T) {
		f := newQueryFixture(t, 10, nil)
		_, err := f.svc.TriggerRefresh()
		assert.Error(t, err)
	})

	t.Run("runs in background", func(t *testing.T) {
		called := make(chan struct{})
		refresh := func(ctx context.Context) (*RunSummary, error) {
			close(called)
			return &RunSummary{}, nil
		}
		f := newQueryFixture(t, 10, refresh)

		job, err := f.svc.TriggerRefresh()
		require.NoError(t, err)
		assert.True(t, job.Accepted)

		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("refresh callback was never invoked")
		}
	})
}

func TestGetRefreshStatus(t *testing.T) {
	f := newQueryFixture(t, 10, nil)
	ctx := context.Background()

	loc, err := time.LoadLocation(dates.Timezone)
	require.NoError(t, err)
	for day := 20; day <= 26; day++ {
		runLog := models.NewRunLog(time.Date(2026, 8, day, 6, 0, 0, 0, loc))
		runLog.Complete(10, 10, time.Minute)
		require.NoError(t, f.runLogs.Add(ctx, runLog))
	}
	f.addEvent(t, models.Event{EventID: "evt_a", Title: "A", Date: "2026-08-28"})

	status, err := f.svc.GetRefreshStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, status.RecentRuns, 5, "capped at five most recent runs")
	require.NotNil(t, status.LastRun)
	assert.Equal(t, time.Date(2026, 8, 26, 6, 0, 0, 0, loc), status.LastRun.RunDate)
	assert.Equal(t, 1, status.EventCount)
}
