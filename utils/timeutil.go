package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	ISODate   = "2006-01-02"
	ClockTime = "15:04"
)

var (
	localeDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	clockTime  = regexp.MustCompile(`^(\d{1,2})(?:(?::|h)(\d{2})?)?h?$`)
)

// LoadLocation resolves an IANA timezone, falling back to fallback and then UTC.
func LoadLocation(name, fallback string) *time.Location {
	for _, n := range []string{name, fallback} {
		if n == "" {
			continue
		}
		if loc, err := time.LoadLocation(n); err == nil {
			return loc
		}
	}
	return time.UTC
}

// NormalizeDate accepts ISO (YYYY-MM-DD) or locale (DD/MM/YYYY) dates and
// returns the ISO form.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(ISODate, s); err == nil {
		return t.Format(ISODate), nil
	}
	if m := localeDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			return "", fmt.Errorf("invalid date %q", s)
		}
		return t.Format(ISODate), nil
	}
	return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD or DD/MM/YYYY", s)
}

// NormalizeClock accepts "9:00", "09:00", "14", "14h", "14h30" and returns "HH:MM".
func NormalizeClock(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	m := clockTime.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("invalid time %q", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ClockToMinutes converts "HH:MM" to minutes from midnight.
func ClockToMinutes(s string) (int, error) {
	t, err := time.Parse(ClockTime, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesToClock formats minutes from midnight as "HH:MM".
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDateIn parses an ISO date at midnight in loc.
func ParseDateIn(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(ISODate, date, loc)
}
