package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
)

// Skip reasons tracked for diagnostics
const (
	SkipNotEventURL      = "not_event_url"
	SkipDenylisted       = "denylisted"
	SkipLabelTooShort    = "label_too_short"
	SkipEventPassed      = "event_passed"
	SkipMissingTimeOrLoc = "missing_time_or_location"
)

// SkippedCandidate records one rejected link for the parse report.
type SkippedCandidate struct {
	Label  string `json:"label"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ParseReport is the batch outcome of one parse pass: accepted events plus
// an auditable list of everything that was rejected and why.
type ParseReport struct {
	Accepted      []models.Event     `json:"accepted"`
	Skipped       []SkippedCandidate `json:"skipped"`
	SkipCounts    map[string]int     `json:"skip_counts"`
	LinksFound    int                `json:"links_found"`
	DetailFetches int                `json:"detail_fetches"`
}

func newParseReport() *ParseReport {
	return &ParseReport{SkipCounts: make(map[string]int)}
}

func (r *ParseReport) skip(label, url, reason string) {
	r.Skipped = append(r.Skipped, SkippedCandidate{Label: label, URL: url, Reason: reason})
	r.SkipCounts[reason]++
}

var (
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	eventURLPattern = regexp.MustCompile(`ilovememphisblog\.com/events/[^/]+/[^/]+`)

	dayHeadingPattern    = regexp.MustCompile(`(?i)^#{1,3}\s*(FRIDAY|SATURDAY|SUNDAY)`)
	dayStandalonePattern = regexp.MustCompile(`^\**(FRIDAY|SATURDAY|SUNDAY)\**\s*$`)
	dayLineStartPattern  = regexp.MustCompile(`(?i)^(friday|saturday|sunday)\b`)

	clockTimePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(a\.m\.|p\.m\.|am|pm)`)
	costTextPattern  = regexp.MustCompile(`(?i)\$|free|price`)
	amountPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

	passedMarkerPattern = regexp.MustCompile(`(?i)event has (already )?passed|this event has ended`)
)

// urlDenylist rejects submission forms, calendar/category pages, social
// links, and anchor/script pseudo-links.
var urlDenylist = []string{
	"/events/add",
	"/events/category/all-events",
	"facebook.com",
	"twitter.com",
	"instagram.com",
	"javascript:",
	"#",
}

const minLabelLength = 5

// EventParser turns scraped listing text into structured event candidates.
// With a TextFetcher attached it also fetches each candidate's detail page
// to enrich location, time, cost, and description.
type EventParser struct {
	fetcher     TextFetcher
	strict      bool
	fetchDetail bool
}

// NewEventParser creates a strict parser without detail fetching.
func NewEventParser() *EventParser {
	return &EventParser{strict: true}
}

// NewEnrichingParser creates a strict parser that fetches detail pages.
func NewEnrichingParser(fetcher TextFetcher) *EventParser {
	return &EventParser{fetcher: fetcher, strict: true, fetchDetail: true}
}

// SetStrict toggles strict acceptance. Lenient mode keeps candidates that
// resolved only a title and date; it exists for the low-fidelity HTML
// fallback text where times rarely survive tag stripping.
func (p *EventParser) SetStrict(strict bool) {
	p.strict = strict
}

// ParseEvents scans the listing text line by line, tracking the current day
// header, and extracts one candidate per markdown link that looks like an
// event detail URL.
func (p *EventParser) ParseEvents(ctx context.Context, text string, weekend dates.WeekendDates) *ParseReport {
	report := newParseReport()
	currentDay := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if day := matchDayHeader(trimmed); day != "" {
			currentDay = day
			continue
		}

		for _, match := range linkPattern.FindAllStringSubmatch(trimmed, -1) {
			report.LinksFound++
			label, target := strings.TrimSpace(match[1]), strings.TrimSpace(match[2])

			if reason := rejectTarget(target); reason != "" {
				report.skip(label, target, reason)
				continue
			}
			if len(label) < minLabelLength {
				report.skip(label, target, SkipLabelTooShort)
				continue
			}

			candidate := p.buildCandidate(label, target, currentDay, weekend)

			if p.fetchDetail && p.fetcher != nil {
				report.DetailFetches++
				if passed := p.enrichFromDetailPage(ctx, &candidate, weekend); passed {
					report.skip(label, target, SkipEventPassed)
					continue
				}
			}

			if p.strict && (!candidate.HasResolvedTime() || !candidate.HasResolvedLocation()) {
				report.skip(label, target, SkipMissingTimeOrLoc)
				continue
			}

			candidate.EventID = models.GenerateEventID()
			report.Accepted = append(report.Accepted, candidate)
		}
	}

	log.Printf("[PARSE] %d links found, %d accepted, %d skipped",
		report.LinksFound, len(report.Accepted), len(report.Skipped))
	return report
}

// matchDayHeader recognizes a day context switch: heading markers, an
// all-caps standalone line, or a line starting with a day name.
func matchDayHeader(line string) string {
	if m := dayHeadingPattern.FindStringSubmatch(line); m != nil {
		return strings.ToLower(m[1])
	}
	if m := dayStandalonePattern.FindStringSubmatch(line); m != nil {
		return strings.ToLower(m[1])
	}
	if m := dayLineStartPattern.FindStringSubmatch(line); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func rejectTarget(target string) string {
	lower := strings.ToLower(target)
	for _, deny := range urlDenylist {
		if deny == "#" {
			if strings.HasPrefix(lower, "#") {
				return SkipDenylisted
			}
			continue
		}
		if strings.Contains(lower, deny) {
			return SkipDenylisted
		}
	}
	if !eventURLPattern.MatchString(lower) {
		return SkipNotEventURL
	}
	return ""
}

// buildCandidate splits the link label on commas: the first segment is the
// title; later segments are scanned for a clock time and a cost string, and
// a second segment free of both becomes the location.
func (p *EventParser) buildCandidate(label, target, currentDay string, weekend dates.WeekendDates) models.Event {
	parts := strings.Split(label, ",")
	title := strings.TrimSpace(parts[0])

	startTime := models.TBD
	location := models.TBD
	costRaw := ""

	for i, part := range parts[1:] {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		hasTime := clockTimePattern.MatchString(segment)
		hasCost := costTextPattern.MatchString(segment)

		if hasTime && startTime == models.TBD {
			startTime = NormalizeClockTime(segment)
		}
		if hasCost && costRaw == "" {
			costRaw = segment
		}
		if !hasTime && !hasCost && i == 0 && location == models.TBD {
			location = segment
		}
	}

	day := currentDay
	if day == "" {
		day = inferDayFromLabel(label)
	}

	return models.Event{
		Title:     title,
		Date:      weekend.ForDay(day),
		Day:       day,
		StartTime: startTime,
		Location:  location,
		CostRaw:   costRaw,
		CostLevel: ExtractCostLevel(costRaw),
		SourceURL: normalizeURL(target),
		ScrapedAt: time.Now(),
	}
}

// inferDayFromLabel falls back to day keywords inside the label text.
// "All weekend" events are filed under Friday; the default is Friday.
func inferDayFromLabel(label string) string {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "saturday"):
		return "saturday"
	case strings.Contains(lower, "sunday"):
		return "sunday"
	case strings.Contains(lower, "friday"), strings.Contains(lower, "all weekend"):
		return "friday"
	}
	return "friday"
}

func normalizeURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "https://" + strings.TrimPrefix(target, "//")
}

// NormalizeClockTime converts a free-text time ("7 p.m.", "7:30 pm") to the
// canonical "07:00 PM" form. Unrecognized input returns TBD.
func NormalizeClockTime(raw string) string {
	m := clockTimePattern.FindStringSubmatch(raw)
	if m == nil {
		return models.TBD
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return models.TBD
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := "AM"
	if strings.HasPrefix(strings.ToLower(strings.ReplaceAll(m[3], ".", "")), "p") {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, meridiem)
}

// ExtractCostLevel derives the bucketed cost level from raw cost text. The
// rule is deterministic: "free" wins, then a numeric amount, then runs of
// dollar signs, then a moderate default.
func ExtractCostLevel(costRaw string) string {
	text := strings.TrimSpace(costRaw)
	if text == "" {
		return models.CostCheap
	}
	if strings.Contains(strings.ToLower(text), "free") {
		return models.CostFree
	}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch {
			case amount == 0:
				return models.CostFree
			case amount < 20:
				return models.CostCheap
			case amount < 50:
				return models.CostModerate
			case amount < 100:
				return models.CostExpensive
			default:
				return models.CostVeryPricey
			}
		}
	}

	switch dollars := strings.Count(text, "$"); {
	case dollars >= 4:
		return models.CostVeryPricey
	case dollars == 3:
		return models.CostExpensive
	case dollars == 2:
		return models.CostModerate
	case dollars == 1:
		return models.CostCheap
	}

	return models.CostModerate
}

var detailFieldPatterns = map[string]*regexp.Regexp{
	"location": regexp.MustCompile(`(?i)^(?:location|venue|where)\s*:?\s*(.+)$`),
	"time":     regexp.MustCompile(`(?i)^(?:time|when)\s*:?\s*(.+)$`),
	"cost":     regexp.MustCompile(`(?i)^(?:cost|price|admission)\s*:?\s*(.+)$`),
	"date":     regexp.MustCompile(`(?i)^date\s*:?\s*(.+)$`),
}

var detailDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
}

// enrichFromDetailPage fetches the candidate's own page to recover more
// precise fields. A failed fetch keeps the link-text fields. Returns true
// when the page marks the event as already passed.
func (p *EventParser) enrichFromDetailPage(ctx context.Context, evt *models.Event, weekend dates.WeekendDates) bool {
	text, err := p.fetcher.Fetch(ctx, evt.SourceURL)
	if err != nil {
		log.Printf("[PARSE] detail fetch failed for %s, keeping link-text fields: %v", evt.SourceURL, err)
		return false
	}

	if passedMarkerPattern.MatchString(text) {
		return true
	}

	var descLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := detailFieldPatterns["location"].FindStringSubmatch(line); m != nil {
			if !evt.HasResolvedLocation() {
				evt.Location = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := detailFieldPatterns["time"].FindStringSubmatch(line); m != nil {
			if !evt.HasResolvedTime() {
				if t := NormalizeClockTime(m[1]); t != models.TBD {
					evt.StartTime = t
				}
			}
			continue
		}
		if m := detailFieldPatterns["cost"].FindStringSubmatch(line); m != nil {
			if evt.CostRaw == "" {
				evt.CostRaw = strings.TrimSpace(m[1])
				evt.CostLevel = ExtractCostLevel(evt.CostRaw)
			}
			continue
		}
		if m := detailFieldPatterns["date"].FindStringSubmatch(line); m != nil {
			applyDetailDate(evt, strings.TrimSpace(m[1]), weekend)
			continue
		}

		// Longer prose lines become the description.
		if evt.Description == "" && len(line) > 80 && !strings.HasPrefix(line, "[") {
			descLines = append(descLines, line)
		}
	}

	if evt.Description == "" && len(descLines) > 0 {
		evt.Description = descLines[0]
	}
	return false
}

// applyDetailDate overrides the header-derived date only when the detail
// page's date falls inside the weekend window. Detail pages often list every
// future recurrence of a recurring event, so out-of-window dates are
// ignored rather than trusted.
func applyDetailDate(evt *models.Event, raw string, weekend dates.WeekendDates) {
	for _, layout := range detailDateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		date := t.Format(dates.DateFormat)
		if weekend.Contains(date) {
			evt.Date = date
			evt.Day = strings.ToLower(t.Weekday().String())
		}
		return
	}
}
