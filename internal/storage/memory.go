package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"memphis-weekend-events/internal/models"
)

// MemoryEventStore is an in-memory EventStore used for tests and local
// single-process runs.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

// NewMemoryEventStore creates an empty event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]models.Event)}
}

func (m *MemoryEventStore) Add(ctx context.Context, evt *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[evt.EventID] = *evt
	return nil
}

func (m *MemoryEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if evt, ok := m.events[id]; ok {
		return &evt, nil
	}
	return nil, nil
}

func (m *MemoryEventStore) Search(ctx context.Context, filter *EventFilter) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []models.Event
	for _, evt := range m.events {
		if MatchesFilter(&evt, filter) {
			results = append(results, evt)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Date != results[j].Date {
			return results[i].Date < results[j].Date
		}
		return results[i].EventID < results[j].EventID
	})
	return results, nil
}

func (m *MemoryEventStore) Update(ctx context.Context, evt *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[evt.EventID] = *evt
	return nil
}

func (m *MemoryEventStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

// MemoryWeatherStore is an in-memory WeatherStore.
type MemoryWeatherStore struct {
	mu        sync.RWMutex
	forecasts map[string]models.DailyForecast
}

// NewMemoryWeatherStore creates an empty weather store.
func NewMemoryWeatherStore() *MemoryWeatherStore {
	return &MemoryWeatherStore{forecasts: make(map[string]models.DailyForecast)}
}

func (m *MemoryWeatherStore) ReplaceAll(ctx context.Context, forecasts []models.DailyForecast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts = make(map[string]models.DailyForecast, len(forecasts))
	for _, f := range forecasts {
		m.forecasts[f.ForecastDate] = f
	}
	return nil
}

func (m *MemoryWeatherStore) GetByDate(ctx context.Context, date string) (*models.DailyForecast, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.forecasts[date]; ok {
		return &f, nil
	}
	return nil, nil
}

func (m *MemoryWeatherStore) Search(ctx context.Context) ([]models.DailyForecast, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []models.DailyForecast
	for _, f := range m.forecasts {
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ForecastDate < results[j].ForecastDate
	})
	return results, nil
}

// MemoryRunLogStore is an in-memory RunLogStore.
type MemoryRunLogStore struct {
	mu      sync.RWMutex
	runLogs map[string]models.RunLog
}

// NewMemoryRunLogStore creates an empty run-log store.
func NewMemoryRunLogStore() *MemoryRunLogStore {
	return &MemoryRunLogStore{runLogs: make(map[string]models.RunLog)}
}

func (m *MemoryRunLogStore) Add(ctx context.Context, log *models.RunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runLogs[log.LogID] = *log
	return nil
}

func (m *MemoryRunLogStore) Update(ctx context.Context, log *models.RunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runLogs[log.LogID] = *log
	return nil
}

func (m *MemoryRunLogStore) Recent(ctx context.Context, limit int) ([]models.RunLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []models.RunLog
	for _, l := range m.runLogs {
		results = append(results, l)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].RunDate.After(results[j].RunDate)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MemoryRunLogStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runLogs, id)
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func anyOverlap(wanted, have []string) bool {
	for _, w := range wanted {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func textMatches(evt *models.Event, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(evt.Title), needle) ||
		strings.Contains(strings.ToLower(evt.Description), needle) ||
		strings.Contains(strings.ToLower(evt.Location), needle)
}
