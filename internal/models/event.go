package models

import "time"

// TBD is the sentinel for any unresolved free-text field, used for both
// start times and locations.
const TBD = "TBD"

// Cost levels derived from raw cost text
const (
	CostFree       = "Free"
	CostCheap      = "$"
	CostModerate   = "$$"
	CostExpensive  = "$$$"
	CostVeryPricey = "$$$$"
)

// Audience types assigned by AI analysis
const (
	AudienceAdults         = "adults"
	AudienceFamilyFriendly = "family-friendly"
	AudienceAllAges        = "all-ages"
)

// EventCategories is the fixed vocabulary for event categorization
var EventCategories = []string{
	"Arts",
	"Music",
	"Sports",
	"Food & Drink",
	"Outdoor Activities",
	"Cultural Events",
	"Theater/Performance",
	"Family/Kids",
	"Nightlife",
	"Shopping",
	"Educational",
	"Community Events",
	"Other",
}

// Event represents a single weekend event, from parse through scoring.
// Classification and score fields stay nil until AI analysis and the
// matcher/scorer have run.
type Event struct {
	EventID string `json:"event_id" dynamodbav:"event_id"`

	// Temporal
	Date      string `json:"date" dynamodbav:"date"`             // YYYY-MM-DD
	Day       string `json:"day" dynamodbav:"day"`               // friday|saturday|sunday
	StartTime string `json:"start_time" dynamodbav:"start_time"` // "07:00 PM" or TBD
	EndTime   string `json:"end_time,omitempty" dynamodbav:"end_time"`

	// Descriptive
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Location    string `json:"location" dynamodbav:"location"`
	CostRaw     string `json:"cost_raw" dynamodbav:"cost_raw"`
	CostLevel   string `json:"cost_level" dynamodbav:"cost_level"`

	// Classification (nullable until AI analysis)
	IsIndoor     *bool    `json:"is_indoor" dynamodbav:"is_indoor"`
	IsOutdoor    *bool    `json:"is_outdoor" dynamodbav:"is_outdoor"`
	AudienceType *string  `json:"audience_type" dynamodbav:"audience_type"`
	Categories   []string `json:"categories" dynamodbav:"categories"`

	// Derived scores (nullable until computed)
	WeatherScore        *int `json:"weather_score" dynamodbav:"weather_score"`
	RecommendationScore *int `json:"recommendation_score" dynamodbav:"recommendation_score"`

	// Provenance
	ScrapedAt  time.Time  `json:"scraped_at" dynamodbav:"scraped_at"`
	AnalyzedAt *time.Time `json:"analyzed_at" dynamodbav:"analyzed_at"`
	SourceURL  string     `json:"source_url" dynamodbav:"source_url"`
}

// Classification is the AI analysis result written back onto an event.
type Classification struct {
	IsIndoor     bool     `json:"is_indoor"`
	IsOutdoor    bool     `json:"is_outdoor"`
	AudienceType string   `json:"audience_type"`
	Categories   []string `json:"categories"`
	CostLevel    string   `json:"cost_level"`
}

// DefaultClassification is applied when AI analysis fails or is unavailable.
func DefaultClassification() Classification {
	return Classification{
		IsIndoor:     true,
		IsOutdoor:    false,
		AudienceType: AudienceAllAges,
		Categories:   []string{"Other"},
		CostLevel:    CostModerate,
	}
}

// HasResolvedTime reports whether the event carries a usable clock time.
func (e *Event) HasResolvedTime() bool {
	return e.StartTime != "" && e.StartTime != TBD
}

// HasResolvedLocation reports whether the event carries a usable location.
func (e *Event) HasResolvedLocation() bool {
	return e.Location != "" && e.Location != TBD
}

// EventsOutput is the JSON structure published to S3 after a refresh run.
type EventsOutput struct {
	Metadata EventsMetadata `json:"metadata"`
	Events   []Event        `json:"events"`
}

// EventsMetadata describes a published events dataset.
type EventsMetadata struct {
	LastUpdated time.Time `json:"lastUpdated"`
	TotalEvents int       `json:"totalEvents"`
	SourceURL   string    `json:"sourceUrl"`
	Weekend     []string  `json:"weekend"` // the three target dates
	Version     string    `json:"version"`
	City        string    `json:"city"`
}
