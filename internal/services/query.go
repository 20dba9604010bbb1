package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
	"memphis-weekend-events/internal/storage"
)

// Sort orders for GetAllEvents
const (
	SortByRecommendation = "recommendation"
	SortByTime           = "time"
	SortByCost           = "cost"
)

// EventView is an event as surfaced to clients, with an optional weather
// warning attached for outdoor events in poor conditions.
type EventView struct {
	models.Event
	WeatherWarning string `json:"weather_warning,omitempty"`
}

// RefreshStatus summarizes recent runs for the status endpoint.
type RefreshStatus struct {
	LastRun    *models.RunLog  `json:"last_run"`
	RecentRuns []models.RunLog `json:"recent_runs"`
	EventCount int             `json:"event_count"`
}

// RefreshJob acknowledges a triggered refresh.
type RefreshJob struct {
	Accepted  bool      `json:"accepted"`
	StartedAt time.Time `json:"started_at"`
}

// QueryService is the read surface consumed by the UI and API layers.
// Readers see eventually-consistent data; a refresh owns the tables while
// it runs.
type QueryService struct {
	events  storage.EventStore
	weather storage.WeatherStore
	runLogs storage.RunLogStore
	cfg     config.ScoringConfig
	refresh func(ctx context.Context) (*RunSummary, error)
	now     func() time.Time
}

// NewQueryService creates the query surface. The refresh callback may be nil
// when the deployment triggers refreshes out of band.
func NewQueryService(
	events storage.EventStore,
	weather storage.WeatherStore,
	runLogs storage.RunLogStore,
	cfg config.ScoringConfig,
	refresh func(ctx context.Context) (*RunSummary, error),
) *QueryService {
	return &QueryService{
		events:  events,
		weather: weather,
		runLogs: runLogs,
		cfg:     cfg,
		refresh: refresh,
		now:     dates.Now,
	}
}

// GetAllEvents returns future events sorted by the requested order:
// recommendation (default), time, or cost.
func (q *QueryService) GetAllEvents(ctx context.Context, sortBy string) ([]EventView, error) {
	return q.GetFilteredEvents(ctx, nil, sortBy)
}

// GetFilteredEvents returns future events matching the filter.
func (q *QueryService) GetFilteredEvents(ctx context.Context, filter *storage.EventFilter, sortBy string) ([]EventView, error) {
	events, err := q.events.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	future := q.futureOnly(events)
	sortEvents(future, sortBy)
	return q.attachWarnings(ctx, future), nil
}

// SearchEvents combines free-text search with structured filters.
func (q *QueryService) SearchEvents(ctx context.Context, text string, filter *storage.EventFilter) ([]EventView, error) {
	if filter == nil {
		filter = &storage.EventFilter{}
	}
	filter.Text = text
	return q.GetFilteredEvents(ctx, filter, SortByRecommendation)
}

// futureOnly drops dateless events, past dates, and today's events whose
// start time (to the minute) has already passed. A timeless event today
// disappears after 6 PM.
func (q *QueryService) futureOnly(events []models.Event) []models.Event {
	now := q.now()
	today := now.Format(dates.DateFormat)
	minuteOfDay := now.Hour()*60 + now.Minute()

	var future []models.Event
	for _, evt := range events {
		if evt.Date == "" || evt.Date < today {
			continue
		}
		if evt.Date == today {
			start := dates.ParseTimeToMinutes(evt.StartTime)
			if start < 0 {
				if now.Hour() >= eveningStart {
					continue
				}
			} else if start < minuteOfDay {
				continue
			}
		}
		future = append(future, evt)
	}
	return future
}

var costOrder = map[string]int{
	models.CostFree:       0,
	models.CostCheap:      1,
	models.CostModerate:   2,
	models.CostExpensive:  3,
	models.CostVeryPricey: 4,
}

func sortEvents(events []models.Event, sortBy string) {
	switch sortBy {
	case SortByTime:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Date != events[j].Date {
				return events[i].Date < events[j].Date
			}
			hi, hj := dates.ParseTimeToHour(events[i].StartTime), dates.ParseTimeToHour(events[j].StartTime)
			if hi < 0 {
				hi = 24 // TBD sorts last within the day
			}
			if hj < 0 {
				hj = 24
			}
			return hi < hj
		})
	case SortByCost:
		sort.SliceStable(events, func(i, j int) bool {
			return costOrder[events[i].CostLevel] < costOrder[events[j].CostLevel]
		})
	default:
		sort.SliceStable(events, func(i, j int) bool {
			return recScore(events[i]) > recScore(events[j])
		})
	}
}

func recScore(evt models.Event) int {
	if evt.RecommendationScore == nil {
		return -1
	}
	return *evt.RecommendationScore
}

// attachWarnings adds a human-readable weather warning to outdoor events
// whose forecast looks rough.
func (q *QueryService) attachWarnings(ctx context.Context, events []models.Event) []EventView {
	views := make([]EventView, 0, len(events))
	forecastCache := make(map[string]*models.DailyForecast)

	for _, evt := range events {
		view := EventView{Event: evt}
		if evt.IsOutdoor != nil && *evt.IsOutdoor {
			forecast, ok := forecastCache[evt.Date]
			if !ok {
				var err error
				forecast, err = q.weather.GetByDate(ctx, evt.Date)
				if err != nil {
					log.Printf("[QUERY] forecast lookup failed for %s: %v", evt.Date, err)
				}
				forecastCache[evt.Date] = forecast
			}
			if forecast != nil {
				view.WeatherWarning = weatherWarning(forecast)
			}
		}
		views = append(views, view)
	}
	return views
}

func weatherWarning(f *models.DailyForecast) string {
	switch {
	case f.PrecipitationChance > 70:
		return fmt.Sprintf("High chance of rain (%d%%)", f.PrecipitationChance)
	case f.PrecipitationChance > 40:
		return fmt.Sprintf("Possible rain (%d%%)", f.PrecipitationChance)
	case f.TempHigh > 95:
		return fmt.Sprintf("Extreme heat expected (%d°F)", f.TempHigh)
	case f.TempLow < 40:
		return fmt.Sprintf("Cold weather expected (%d°F)", f.TempLow)
	case f.WindSpeed > 20:
		return fmt.Sprintf("Strong winds expected (%d mph)", f.WindSpeed)
	}
	return ""
}

// GetWeatherData returns the stored forecasts with period summaries. For
// today, periods that have already elapsed are nil, and the headline precip
// and conditions are recomputed from the remaining periods so the card
// reflects what is still to come.
func (q *QueryService) GetWeatherData(ctx context.Context) ([]models.DailySummary, error) {
	forecasts, err := q.weather.Search(ctx)
	if err != nil {
		return nil, err
	}

	now := q.now()
	today := now.Format(dates.DateFormat)
	currentHour := now.Hour()

	var summaries []models.DailySummary
	for i := range forecasts {
		f := &forecasts[i]
		morning, afternoon, evening := BuildPeriodSummaries(f)

		if f.ForecastDate == today {
			if currentHour >= eveningStart {
				morning, afternoon = nil, nil
			} else if currentHour >= afternoonStart {
				morning = nil
			}
		}

		summary := models.DailySummary{
			ForecastDate:        f.ForecastDate,
			DayName:             f.DayName,
			TempHigh:            f.TempHigh,
			TempLow:             f.TempLow,
			Conditions:          f.Conditions,
			PrecipitationChance: f.PrecipitationChance,
			WindSpeed:           f.WindSpeed,
			Morning:             morning,
			Afternoon:           afternoon,
			Evening:             evening,
		}

		// Future periods drive the headline numbers.
		remaining := make([]*models.PeriodForecast, 0, 3)
		for _, p := range []*models.PeriodForecast{morning, afternoon, evening} {
			if p != nil {
				remaining = append(remaining, p)
			}
		}
		if len(remaining) > 0 {
			maxPrecip := 0
			counts := make(map[string]int)
			for _, p := range remaining {
				if p.PrecipitationChance > maxPrecip {
					maxPrecip = p.PrecipitationChance
				}
				counts[p.Conditions] += p.HourCount
			}
			summary.PrecipitationChance = maxPrecip
			best := 0
			for cond, n := range counts {
				if n > best {
					best = n
					summary.Conditions = cond
				}
			}
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// TriggerRefresh starts a refresh in the background and returns immediately.
// Mutual exclusion is the scheduler's job; overlapping triggers are not
// guarded here.
func (q *QueryService) TriggerRefresh() (*RefreshJob, error) {
	if q.refresh == nil {
		return nil, fmt.Errorf("refresh is not wired in this deployment")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		if _, err := q.refresh(ctx); err != nil {
			log.Printf("[QUERY] background refresh failed: %v", err)
		}
	}()

	return &RefreshJob{Accepted: true, StartedAt: q.now()}, nil
}

// GetRefreshStatus returns the last five runs and the current event count.
func (q *QueryService) GetRefreshStatus(ctx context.Context) (*RefreshStatus, error) {
	logs, err := q.runLogs.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	events, err := q.events.Search(ctx, nil)
	if err != nil {
		return nil, err
	}

	status := &RefreshStatus{RecentRuns: logs, EventCount: len(events)}
	if len(logs) > 0 {
		status.LastRun = &logs[0]
	}
	return status, nil
}
