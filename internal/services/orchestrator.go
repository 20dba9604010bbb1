package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
	"memphis-weekend-events/internal/storage"
)

// WeatherFetcher is the forecast source the orchestrator depends on.
type WeatherFetcher interface {
	FetchForecasts(ctx context.Context, weekend dates.WeekendDates) ([]models.DailyForecast, error)
}

// EventClassifier is the AI analysis dependency.
type EventClassifier interface {
	AnalyzeEvents(ctx context.Context, events []models.Event) ([]models.Classification, int)
}

// EventPublisher uploads the final dataset after a successful run.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []models.Event, weekend dates.WeekendDates) (*PublishResult, error)
}

// junkTitlePattern matches known noise that occasionally survives parsing,
// like bare comment-thread "reply" links.
var junkTitlePattern = regexp.MustCompile(`(?i)^(reply|comments?|read more|share|log in|sign up)$`)

// RunSummary reports the outcome of one refresh run.
type RunSummary struct {
	LogID          string  `json:"log_id"`
	Status         string  `json:"status"`
	EventsFound    int     `json:"events_found"`
	EventsAnalyzed int     `json:"events_analyzed"`
	EventsCleaned  int     `json:"events_cleaned"`
	ForecastDays   int     `json:"forecast_days"`
	DurationSec    float64 `json:"duration_seconds"`
}

// Orchestrator sequences the full refresh pipeline: cleanup, weather fetch,
// scrape, parse, persist, AI analysis, weather matching, and scoring. It is
// the only component aware of the full sequence.
type Orchestrator struct {
	fetcher   TextFetcher
	parser    *EventParser
	weather   WeatherFetcher
	analyzer  EventClassifier
	publisher EventPublisher

	events       storage.EventStore
	weatherStore storage.WeatherStore
	runLogs      storage.RunLogStore

	sourceURL string
	cfg       config.ScoringConfig
	retry     RetryConfig
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. The publisher may be nil when no S3
// bucket is configured.
func NewOrchestrator(
	fetcher TextFetcher,
	parser *EventParser,
	weather WeatherFetcher,
	analyzer EventClassifier,
	publisher EventPublisher,
	events storage.EventStore,
	weatherStore storage.WeatherStore,
	runLogs storage.RunLogStore,
	sourceURL string,
	cfg config.ScoringConfig,
) *Orchestrator {
	return &Orchestrator{
		fetcher:      fetcher,
		parser:       parser,
		weather:      weather,
		analyzer:     analyzer,
		publisher:    publisher,
		events:       events,
		weatherStore: weatherStore,
		runLogs:      runLogs,
		sourceURL:    sourceURL,
		cfg:          cfg,
		retry:        DefaultRetryConfig(),
		now:          dates.Now,
	}
}

// Run executes one refresh. A run log is created in the running state before
// the first step so even startup failures are observable; on failure the log
// is finalized and the error is returned to the scheduler.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	runLog := models.NewRunLog(o.now())
	if err := o.runLogs.Add(ctx, runLog); err != nil {
		return nil, &PersistenceError{Operation: "create run log", Cause: err}
	}

	summary, err := o.runPipeline(ctx, runLog)
	elapsed := time.Since(start)

	if err != nil {
		runLog.Fail(err, elapsed)
		if logErr := o.runLogs.Update(ctx, runLog); logErr != nil {
			log.Printf("[RUN] failed to finalize run log %s: %v", runLog.LogID, logErr)
		}
		log.Printf("[RUN] refresh failed after %.1fs: %v", elapsed.Seconds(), err)
		return nil, err
	}

	runLog.Complete(summary.EventsFound, summary.EventsAnalyzed, elapsed)
	if logErr := o.runLogs.Update(ctx, runLog); logErr != nil {
		log.Printf("[RUN] failed to finalize run log %s: %v", runLog.LogID, logErr)
	}

	summary.LogID = runLog.LogID
	summary.Status = models.RunStatusSuccess
	summary.DurationSec = elapsed.Seconds()
	log.Printf("[RUN] refresh succeeded in %.1fs: %d events found, %d analyzed",
		elapsed.Seconds(), summary.EventsFound, summary.EventsAnalyzed)
	return summary, nil
}

func (o *Orchestrator) runPipeline(ctx context.Context, runLog *models.RunLog) (*RunSummary, error) {
	summary := &RunSummary{}
	weekend := dates.GetWeekendDates(o.now())

	// Step 1: retention cleanup
	cleaned, err := o.cleanup(ctx)
	if err != nil {
		return nil, err
	}
	summary.EventsCleaned = cleaned

	// Step 2: weather fetch + full-replace persist
	forecasts, err := o.weather.FetchForecasts(ctx, weekend)
	if err != nil {
		return nil, err
	}
	if err := o.weatherStore.ReplaceAll(ctx, forecasts); err != nil {
		return nil, &PersistenceError{Operation: "replace forecasts", Cause: err}
	}
	summary.ForecastDays = len(forecasts)

	// Step 3: scrape, retrying transient failures
	text, err := FetchWithRetry(ctx, o.fetcher, o.sourceURL, o.retry)
	if err != nil {
		return nil, err
	}

	// Step 4: parse
	report := o.parser.ParseEvents(ctx, text, weekend)
	summary.EventsFound = len(report.Accepted)

	// Step 5: persist new events with AI fields null
	for i := range report.Accepted {
		if err := o.events.Add(ctx, &report.Accepted[i]); err != nil {
			return nil, &PersistenceError{Operation: "store event", Cause: err}
		}
	}

	// Steps 6-7: AI analysis over all stored events, results written back
	stored, err := o.events.Search(ctx, nil)
	if err != nil {
		return nil, &PersistenceError{Operation: "load events for analysis", Cause: err}
	}
	classifications, analyzed := o.analyzer.AnalyzeEvents(ctx, stored)
	summary.EventsAnalyzed = analyzed
	analyzedAt := o.now()
	for i := range stored {
		c := classifications[i]
		stored[i].IsIndoor = &c.IsIndoor
		stored[i].IsOutdoor = &c.IsOutdoor
		stored[i].AudienceType = &c.AudienceType
		stored[i].Categories = c.Categories
		if models.ValidateCostLevel(c.CostLevel) {
			stored[i].CostLevel = c.CostLevel
		}
		stored[i].AnalyzedAt = &analyzedAt
		if err := o.events.Update(ctx, &stored[i]); err != nil {
			return nil, &PersistenceError{Operation: "write analysis", Cause: err}
		}
	}

	// Step 8: weather matching
	matcher := NewWeatherMatcher(forecasts, o.cfg)
	for i := range stored {
		snapshot := matcher.MatchWeather(stored[i].Date, stored[i].StartTime)
		score := o.cfg.NeutralWeatherScore
		if snapshot != nil {
			isOutdoor := stored[i].IsOutdoor != nil && *stored[i].IsOutdoor
			score = matcher.CalculateWeatherScore(snapshot, isOutdoor)
		}
		stored[i].WeatherScore = &score
		if err := o.events.Update(ctx, &stored[i]); err != nil {
			return nil, &PersistenceError{Operation: "write weather score", Cause: err}
		}
	}

	// Step 9: recommendation scoring
	scorer := NewRecommendationScorer(o.cfg)
	for i := range stored {
		score := scorer.Score(&stored[i])
		stored[i].RecommendationScore = &score
		if err := o.events.Update(ctx, &stored[i]); err != nil {
			return nil, &PersistenceError{Operation: "write recommendation score", Cause: err}
		}
	}

	// Step 10: snapshot publish, skipped when unconfigured
	if o.publisher != nil {
		if _, err := o.publisher.PublishEvents(ctx, stored, weekend); err != nil {
			log.Printf("[RUN] snapshot publish failed, run continues: %v", err)
		}
	}

	return summary, nil
}

// cleanup removes events, forecasts, and logs past their retention windows,
// plus junk-titled events. A cleanup failure is logged but never aborts the
// run.
func (o *Orchestrator) cleanup(ctx context.Context) (int, error) {
	removed := 0
	now := o.now()

	events, err := o.events.Search(ctx, nil)
	if err != nil {
		log.Printf("[CLEANUP] event scan failed, skipping cleanup: %v", err)
		return 0, nil
	}
	for i := range events {
		stale := now.Sub(events[i].ScrapedAt) > o.cfg.EventRetention
		junk := junkTitlePattern.MatchString(events[i].Title)
		if !stale && !junk {
			continue
		}
		if err := o.events.Delete(ctx, events[i].EventID); err != nil {
			log.Printf("[CLEANUP] failed to delete event %s: %v", events[i].EventID, err)
			continue
		}
		removed++
	}

	forecasts, err := o.weatherStore.Search(ctx)
	if err == nil {
		cutoff := now.Add(-o.cfg.WeatherRetention).Format(dates.DateFormat)
		var kept []models.DailyForecast
		for _, f := range forecasts {
			if f.ForecastDate >= cutoff {
				kept = append(kept, f)
			}
		}
		if len(kept) < len(forecasts) {
			if err := o.weatherStore.ReplaceAll(ctx, kept); err != nil {
				log.Printf("[CLEANUP] failed to prune forecasts: %v", err)
			}
		}
	}

	logs, err := o.runLogs.Recent(ctx, 0)
	if err == nil {
		for _, l := range logs {
			if now.Sub(l.RunDate) > o.cfg.LogRetention {
				if err := o.runLogs.Delete(ctx, l.LogID); err != nil {
					log.Printf("[CLEANUP] failed to delete run log %s: %v", l.LogID, err)
				}
			}
		}
	}

	if removed > 0 {
		log.Printf("[CLEANUP] removed %d stale or junk events", removed)
	}
	return removed, nil
}

// FetchWithRetry wraps a fetch in the orchestrator's retry policy for flaky
// network sources.
func FetchWithRetry(ctx context.Context, fetcher TextFetcher, url string, retry RetryConfig) (string, error) {
	var lastErr error
	delay := retry.InitialDelay
	for attempt := 0; attempt < retry.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * retry.BackoffFactor)
		}
		text, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("fetch failed after %d attempts: %w", retry.MaxRetries, lastErr)
}
