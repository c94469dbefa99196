// Package timeparse resolves natural-language date and time expressions
// against a fixed reference instant.
//
// Resolution is deliberately permissive: both resolvers always return a
// best-effort instant and never fail. The reference is truncated to local
// midnight before relative keywords are applied, so an expression with no
// time-of-day component resolves to midnight of the target day.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	timeOfDayPattern = regexp.MustCompile(`(\d{1,2})\s*(:|am|pm|AM|PM)`)
	minutesPattern   = regexp.MustCompile(`:([0-5][0-9])`)
)

// absoluteLayouts are tried in order when no relative keyword matches.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ResolveDate resolves text to a calendar date. Relative keywords take
// precedence (tomorrow, yesterday, today, next week; first match wins),
// then an absolute parse, then the reference date itself.
func ResolveDate(text string, ref time.Time) time.Time {
	if d, ok := keywordOffset(text, ref); ok {
		return d
	}
	if d, ok := parseAbsolute(text, ref.Location()); ok {
		return d
	}
	return midnight(ref)
}

// ResolveDateTime resolves text to an instant. An absolute parse wins
// outright; otherwise the day comes from the relative keywords and the
// time of day from a numeric-hour pattern followed by ':', 'am' or 'pm'.
func ResolveDateTime(text string, ref time.Time) time.Time {
	if d, ok := parseAbsolute(text, ref.Location()); ok {
		return d
	}

	base, ok := keywordOffset(text, ref)
	if !ok {
		base = midnight(ref)
	}

	m := timeOfDayPattern.FindStringSubmatch(text)
	if m == nil {
		return base
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return base
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "pm") && hour < 12 {
		hour += 12
	} else if strings.Contains(lower, "am") && hour == 12 {
		hour = 0
	}

	minute := 0
	if mm := minutesPattern.FindStringSubmatch(text); mm != nil {
		minute, _ = strconv.Atoi(mm[1])
	}

	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

// keywordOffset applies the fixed relative-keyword table to the reference.
// Precedence is tomorrow > yesterday > today > next week; first match wins.
func keywordOffset(text string, ref time.Time) (time.Time, bool) {
	base := midnight(ref)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "tomorrow"):
		return base.AddDate(0, 0, 1), true
	case strings.Contains(lower, "yesterday"):
		return base.AddDate(0, 0, -1), true
	case strings.Contains(lower, "today"):
		return base, true
	case strings.Contains(lower, "next week"):
		return base.AddDate(0, 0, 7), true
	}
	return base, false
}

func parseAbsolute(text string, loc *time.Location) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
