package models

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateEventID creates a fresh unique event ID. IDs are opaque and never
// derived from event content; two runs over identical source text produce
// different IDs.
func GenerateEventID() string {
	return "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GenerateLogID creates a unique ID for an orchestration run log.
func GenerateLogID() string {
	return "log_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ValidateCostLevel checks if the cost level is one of the known buckets.
func ValidateCostLevel(level string) bool {
	switch level {
	case CostFree, CostCheap, CostModerate, CostExpensive, CostVeryPricey:
		return true
	}
	return false
}

// ValidateAudienceType checks if the audience type is valid.
func ValidateAudienceType(audience string) bool {
	switch audience {
	case AudienceAdults, AudienceFamilyFriendly, AudienceAllAges:
		return true
	}
	return false
}

// ValidateCategory checks if the category belongs to the fixed vocabulary.
func ValidateCategory(category string) bool {
	for _, c := range EventCategories {
		if category == c {
			return true
		}
	}
	return false
}

// ValidateDayName checks for one of the three weekend day names.
func ValidateDayName(day string) bool {
	switch strings.ToLower(day) {
	case "friday", "saturday", "sunday":
		return true
	}
	return false
}
