package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dateFormats covers what models emit plus what raw spreadsheet cells
// tend to hold when a row bypasses normalization.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"2.1.2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var isoDateRegex = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)

// ParseDate parses a date string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	// Last resort: an ISO date buried in surrounding text.
	if m := isoDateRegex.FindString(s); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

var clockFormats = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseClock parses a time-of-day string. ok is false when s holds no
// recognizable time.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	s = strings.ReplaceAll(s, "a.m.", "AM")
	s = strings.ReplaceAll(s, "p.m.", "PM")
	s = strings.ReplaceAll(s, " am", " AM")
	s = strings.ReplaceAll(s, " pm", " PM")

	for _, format := range clockFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// CombineDateTime merges a date string and an optional time-of-day string
// into one UTC instant. A missing or unparseable time leaves the event at
// midnight.
func CombineDateTime(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if hour, minute, ok := ParseClock(clock); ok {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
	}
	return day, nil
}
