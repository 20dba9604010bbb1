package services

import "fmt"

// ExtractionError signals that a scrape strategy (or all of them) failed to
// produce usable text for a URL.
type ExtractionError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Message)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// WeatherFetchError signals a non-success response or malformed payload from
// the weather API. Fatal to a run; scores cannot be computed without it.
type WeatherFetchError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *WeatherFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("weather fetch failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("weather fetch failed: %s", e.Message)
}

func (e *WeatherFetchError) Unwrap() error { return e.Cause }

// AIAnalysisError signals a per-event analysis failure after retries. Never
// fatal; the event falls back to the default classification.
type AIAnalysisError struct {
	EventID string
	Cause   error
}

func (e *AIAnalysisError) Error() string {
	return fmt.Sprintf("ai analysis failed for event %s: %v", e.EventID, e.Cause)
}

func (e *AIAnalysisError) Unwrap() error { return e.Cause }

// PersistenceError signals a storage-layer failure. Propagated, fatal.
type PersistenceError struct {
	Operation string
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Operation, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
