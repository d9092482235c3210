// Package dates formats and parses plan dates.
//
// Every time this package returns is midnight UTC, and callers are expected to
// pass UTC times back in. FormatForDisplay always reads the UTC date while
// FormatForSave and SameDay read each value in its own zone, so a non-UTC
// instant can save and display as different days.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// SaveLayout is how dates are stored on a plan document.
	SaveLayout = "2006-01-02"

	// displayLayout has no ordinal verb; the "2" is rewritten to "2nd" etc.
	displayLayout = "Jan 2, 2006 (Mon)"
)

var (
	ErrParse        = errors.New("dates: cannot parse date")
	ErrInvalidRange = errors.New("dates: end date precedes start date")
)

var ordinalRe = regexp.MustCompile(`^([A-Za-z]{3}) (\d{1,2})(st|nd|rd|th), `)

// FormatForDisplay renders t as e.g. "Mar 1st, 2021 (Mon)". The UTC calendar
// date is used so a stored date renders the same from any server zone.
func FormatForDisplay(t time.Time) string {
	u := t.UTC()
	day := u.Day()
	return fmt.Sprintf("%s %d%s, %d (%s)", u.Format("Jan"), day, ordinal(day), u.Year(), u.Format("Mon"))
}

// ParseDisplay is the inverse of FormatForDisplay.
func ParseDisplay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	m := ordinalRe.FindStringSubmatchIndex(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, s)
	}

	day, _ := strconv.Atoi(s[m[4]:m[5]])
	if s[m[6]:m[7]] != ordinal(day) {
		return time.Time{}, fmt.Errorf("%w: %q has a bad ordinal suffix", ErrParse, s)
	}

	// drop the suffix so the stdlib layout can take over
	plain := s[:m[6]] + s[m[7]:]
	t, err := time.Parse(displayLayout, plain)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}
	return t, nil
}

// FormatForSave renders the calendar date of t in its own location.
func FormatForSave(t time.Time) string {
	return t.Format(SaveLayout)
}

// ParseSave parses a stored date into UTC midnight.
func ParseSave(s string) (time.Time, error) {
	t, err := time.Parse(SaveLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return t, nil
}

// SameDay reports whether a and b fall on the same calendar date, each read
// in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysInclusive returns every calendar date from start to end, both included.
func DaysInclusive(start, end time.Time) ([]time.Time, error) {
	from := midnight(start)
	to := midnight(end)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, FormatForSave(from), FormatForSave(to))
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
