package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)`)
	dayMonthYear  = regexp.MustCompile(`(?i)(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*,?\s+(\d{4})`)
	monthDayYear  = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+(\d{1,2}),?\s+(\d{4})`)
	hasYear       = regexp.MustCompile(`\d{4}`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// fallbackLayouts are tried after the two listing-site shapes fail.
var fallbackLayouts = []string{
	isoDate,
	time.RFC3339,
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"02/01/2006",
	"2 Jan 06",
	"Mon, 2 Jan 2006",
}

// NormalizeDate converts a human-written date to YYYY-MM-DD. ok is false
// when nothing parses or the year is before now's year, which catches
// misread two-digit years. It does not reject past days of the current
// year; callers drop those.
func NormalizeDate(text string, now time.Time) (string, bool) {
	cleaned := strings.TrimSpace(ordinalSuffix.ReplaceAllString(text, "$1"))
	if cleaned == "" {
		return "", false
	}

	if m := dayMonthYear.FindStringSubmatch(cleaned); m != nil {
		return buildDate(m[3], m[2], m[1], now)
	}
	if m := monthDayYear.FindStringSubmatch(cleaned); m != nil {
		return buildDate(m[3], m[1], m[2], now)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			if t.Year() < now.Year() {
				return "", false
			}
			return t.Format(isoDate), true
		}
	}
	return "", false
}

func buildDate(yearStr, monthStr, dayStr string, now time.Time) (string, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < now.Year() {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	month := monthIndex[strings.ToLower(monthStr[:3])]

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// 31 Feb and friends roll over in time.Date; reject them instead.
	if t.Day() != day || t.Month() != month {
		return "", false
	}
	return t.Format(isoDate), true
}

// DaysLeftDate resolves an "N days left" listing to the calendar day N days
// after now. Callers discard n <= 0.
func DaysLeftDate(n int, now time.Time) string {
	return now.AddDate(0, 0, n).Format(isoDate)
}

// Today is the canonical form of now's calendar day.
func Today(now time.Time) string {
	return now.Format(isoDate)
}

// IsPast reports whether date is strictly before now's calendar day. ISO
// dates compare correctly as strings.
func IsPast(date string, now time.Time) bool {
	return date < Today(now)
}

// maxYearRoll is how many years after now's year withYear will try; 29 Feb
// can be eight years out across a century.
const maxYearRoll = 8

// withYear appends a year to a listing date that lacks one: the first year
// from now's on where the day exists and is not already past.
func withYear(dateStr string, now time.Time) (string, bool) {
	if hasYear.MatchString(dateStr) {
		return NormalizeDate(dateStr, now)
	}
	for year := now.Year(); year <= now.Year()+maxYearRoll; year++ {
		date, ok := NormalizeDate(dateStr+" "+strconv.Itoa(year), now)
		if ok && !IsPast(date, now) {
			return date, true
		}
	}
	return "", false
}
