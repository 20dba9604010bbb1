// Package storage defines the persistence contracts the pipeline needs and
// provides in-memory and DynamoDB implementations.
package storage

import (
	"context"

	"memphis-weekend-events/internal/models"
)

// EventFilter narrows an event search. Zero-value fields are ignored.
type EventFilter struct {
	Days          []string // friday|saturday|sunday
	CostLevels    []string
	Categories    []string // any-overlap
	AudienceTypes []string
	IsIndoor      *bool
	IsOutdoor     *bool
	Text          string // substring across title/description/location
}

// EventStore persists events across pipeline stages.
type EventStore interface {
	Add(ctx context.Context, evt *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Search(ctx context.Context, filter *EventFilter) ([]models.Event, error)
	Update(ctx context.Context, evt *models.Event) error
	Delete(ctx context.Context, id string) error
}

// WeatherStore persists daily forecasts. A refresh is full-replace so at
// most one row per date exists.
type WeatherStore interface {
	ReplaceAll(ctx context.Context, forecasts []models.DailyForecast) error
	GetByDate(ctx context.Context, date string) (*models.DailyForecast, error)
	Search(ctx context.Context) ([]models.DailyForecast, error)
}

// RunLogStore persists orchestration run logs.
type RunLogStore interface {
	Add(ctx context.Context, log *models.RunLog) error
	Update(ctx context.Context, log *models.RunLog) error
	Recent(ctx context.Context, limit int) ([]models.RunLog, error)
	Delete(ctx context.Context, id string) error
}

// MatchesFilter reports whether an event satisfies a filter. Shared by the
// memory store and the post-scan filtering of the DynamoDB store.
func MatchesFilter(evt *models.Event, filter *EventFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Days) > 0 && !containsFold(filter.Days, evt.Day) {
		return false
	}
	if len(filter.CostLevels) > 0 && !contains(filter.CostLevels, evt.CostLevel) {
		return false
	}
	if len(filter.Categories) > 0 && !anyOverlap(filter.Categories, evt.Categories) {
		return false
	}
	if len(filter.AudienceTypes) > 0 {
		if evt.AudienceType == nil || !contains(filter.AudienceTypes, *evt.AudienceType) {
			return false
		}
	}
	if filter.IsIndoor != nil {
		if evt.IsIndoor == nil || *evt.IsIndoor != *filter.IsIndoor {
			return false
		}
	}
	if filter.IsOutdoor != nil {
		if evt.IsOutdoor == nil || *evt.IsOutdoor != *filter.IsOutdoor {
			return false
		}
	}
	if filter.Text != "" && !textMatches(evt, filter.Text) {
		return false
	}
	return true
}
