// Package dates computes the weekend window and normalizes event times for
// the Memphis event pipeline. All calendar math happens in Central Time.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const Timezone = "America/Chicago"

// DateFormat is the canonical calendar-date layout used across storage.
const DateFormat = "2006-01-02"

// TimeFormat is the canonical clock-time layout ("07:00 PM").
const TimeFormat = "03:04 PM"

var central = mustLoadLocation()

func mustLoadLocation() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		return time.FixedZone("CST", -6*3600)
	}
	return loc
}

// Now returns the current time in Central Time.
func Now() time.Time {
	return time.Now().In(central)
}

// WeekendDates maps the three weekend day names to concrete calendar dates.
type WeekendDates struct {
	Friday   string
	Saturday string
	Sunday   string
}

// ForDay returns the date for a lowercase day name, or "" if unknown.
func (w WeekendDates) ForDay(day string) string {
	switch strings.ToLower(day) {
	case "friday":
		return w.Friday
	case "saturday":
		return w.Saturday
	case "sunday":
		return w.Sunday
	}
	return ""
}

// Contains reports whether date falls inside the 3-day window.
func (w WeekendDates) Contains(date string) bool {
	return date == w.Friday || date == w.Saturday || date == w.Sunday
}

// Dates returns the window in order.
func (w WeekendDates) Dates() []string {
	return []string{w.Friday, w.Saturday, w.Sunday}
}

// GetWeekendDates computes the applicable Friday/Saturday/Sunday for "today".
// Monday through Thursday target the upcoming Friday; Friday targets today;
// Saturday and Sunday target the most recent Friday, so the window stays
// stable for the whole weekend once it starts.
func GetWeekendDates(today time.Time) WeekendDates {
	today = today.In(central)
	weekday := mondayIndexed(today.Weekday())

	var friday time.Time
	switch {
	case weekday <= 3:
		friday = today.AddDate(0, 0, 4-weekday)
	case weekday == 4:
		friday = today
	default:
		friday = today.AddDate(0, 0, -(weekday - 4))
	}

	return WeekendDates{
		Friday:   friday.Format(DateFormat),
		Saturday: friday.AddDate(0, 0, 1).Format(DateFormat),
		Sunday:   friday.AddDate(0, 0, 2).Format(DateFormat),
	}
}

// mondayIndexed converts Go's Sunday=0 weekday to Monday=0.
func mondayIndexed(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// DayNameFor returns the capitalized weekday name for a YYYY-MM-DD date.
func DayNameFor(date string) string {
	t, err := time.ParseInLocation(DateFormat, date, central)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

var hourPattern = regexp.MustCompile(`^(\d{1,2})`)

// ParseTimeToMinutes converts a free-text clock time to minutes after
// midnight (0-1439). Handles "7:30 PM", "1 p.m.", "10 a.m." and bare-hour
// forms. Returns -1 for empty, "TBD", or unparseable input.
func ParseTimeToMinutes(timeStr string) int {
	if timeStr == "" || strings.EqualFold(timeStr, "TBD") {
		return -1
	}

	cleaned := strings.ToUpper(strings.ReplaceAll(timeStr, ".", ""))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return -1
	}

	var hourText string
	minute := 0
	if idx := strings.Index(cleaned, ":"); idx >= 0 {
		hourText = strings.TrimSpace(cleaned[:idx])
		if m := hourPattern.FindString(strings.TrimSpace(cleaned[idx+1:])); m != "" {
			if parsed, err := strconv.Atoi(m); err == nil && parsed < 60 {
				minute = parsed
			}
		}
	} else {
		hourText = strings.Fields(cleaned)[0]
	}
	m := hourPattern.FindString(strings.TrimSpace(hourText))
	if m == "" {
		return -1
	}
	hour, err := strconv.Atoi(m)
	if err != nil || hour < 0 || hour > 23 {
		return -1
	}

	if strings.Contains(cleaned, "PM") && hour != 12 {
		hour += 12
	} else if strings.Contains(cleaned, "AM") && hour == 12 {
		hour = 0
	}
	if hour > 23 {
		return -1
	}
	return hour*60 + minute
}

// ParseTimeToHour converts a free-text clock time to an hour of day (0-23),
// with the same -1 sentinel as ParseTimeToMinutes.
func ParseTimeToHour(timeStr string) int {
	minutes := ParseTimeToMinutes(timeStr)
	if minutes < 0 {
		return -1
	}
	return minutes / 60
}
