package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(DateFormat, value, central)
	require.NoError(t, err)
	return parsed
}

func TestGetWeekendDates(t *testing.T) {
	tests := []struct {
		name     string
		today    string
		friday   string
		saturday string
		sunday   string
	}{
		{"monday targets upcoming friday", "2026-08-24", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"tuesday targets upcoming friday", "2026-08-25", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"thursday targets next day", "2026-08-27", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"friday targets today", "2026-08-28", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"saturday keeps current weekend", "2026-08-29", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"sunday keeps current weekend", "2026-08-30", "2026-08-28", "2026-08-29", "2026-08-30"},
		{"month boundary", "2026-08-31", "2026-09-04", "2026-09-05", "2026-09-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weekend := GetWeekendDates(mustDate(t, tt.today))
			assert.Equal(t, tt.friday, weekend.Friday)
			assert.Equal(t, tt.saturday, weekend.Saturday)
			assert.Equal(t, tt.sunday, weekend.Sunday)
		})
	}
}

func TestWeekendDatesInvariants(t *testing.T) {
	// For Mon-Thu the Friday is strictly in the future and within 4 days;
	// for Fri-Sun it is today or at most 2 days back. Saturday and Sunday
	// are always +1/+2 from Friday.
	start := mustDate(t, "2026-01-05") // a Monday
	for i := 0; i < 28; i++ {
		today := start.AddDate(0, 0, i)
		weekend := GetWeekendDates(today)

		friday := mustDate(t, weekend.Friday)
		diff := int(friday.Sub(today).Hours() / 24)

		switch mondayIndexed(today.Weekday()) {
		case 0, 1, 2, 3:
			assert.Greater(t, diff, 0, "friday must be in the future from %s", today)
			assert.LessOrEqual(t, diff, 4)
		default:
			assert.LessOrEqual(t, diff, 0, "friday must not be in the future from %s", today)
			assert.GreaterOrEqual(t, diff, -2)
		}

		assert.Equal(t, friday.AddDate(0, 0, 1).Format(DateFormat), weekend.Saturday)
		assert.Equal(t, friday.AddDate(0, 0, 2).Format(DateFormat), weekend.Sunday)
	}
}

func TestWeekendDatesLookup(t *testing.T) {
	weekend := WeekendDates{Friday: "2026-08-28", Saturday: "2026-08-29", Sunday: "2026-08-30"}

	assert.Equal(t, "2026-08-28", weekend.ForDay("friday"))
	assert.Equal(t, "2026-08-29", weekend.ForDay("Saturday"))
	assert.Equal(t, "", weekend.ForDay("wednesday"))
	assert.True(t, weekend.Contains("2026-08-30"))
	assert.False(t, weekend.Contains("2026-08-31"))
	assert.Equal(t, []string{"2026-08-28", "2026-08-29", "2026-08-30"}, weekend.Dates())
}

func TestParseTimeToHour(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"7:30 PM", 19},
		{"1 p.m.", 13},
		{"10 a.m.", 10},
		{"12 PM", 12},
		{"12 AM", 0},
		{"07:00 PM", 19},
		{"11:45 am", 11},
		{"9", 9},
		{"TBD", -1},
		{"", -1},
		{"noonish", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeToHour(tt.input))
		})
	}
}

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"7:30 PM", 19*60 + 30},
		{"07:00 PM", 19 * 60},
		{"11:45 am", 11*60 + 45},
		{"12:15 AM", 15},
		{"3:05 PM", 15*60 + 5},
		{"1 p.m.", 13 * 60},
		{"9", 9 * 60},
		{"TBD", -1},
		{"", -1},
		{"noonish", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeToMinutes(tt.input))
		})
	}
}

func TestDayNameFor(t *testing.T) {
	assert.Equal(t, "Friday", DayNameFor("2026-08-28"))
	assert.Equal(t, "Sunday", DayNameFor("2026-08-30"))
	assert.Equal(t, "", DayNameFor("not-a-date"))
}
