// Package period holds the calendar arithmetic behind challenge rotation,
// completion periods and streaks. Rotation and completion periods are anchored
// to UTC calendar days and ISO weeks; streak day boundaries use a separate
// reference timezone so a late-night workout still counts for the right day.
package period

import (
	"log"
	"os"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DefaultReferenceTimezone is where streak day boundaries are drawn.
const DefaultReferenceTimezone = "America/New_York"

// ReferenceLocation loads the streak timezone from REFERENCE_TIMEZONE,
// falling back to America/New_York. An unloadable zone falls back to UTC so
// the engine keeps working, just with UTC day boundaries.
func ReferenceLocation() *time.Location {
	name := os.Getenv("REFERENCE_TIMEZONE")
	if name == "" {
		name = DefaultReferenceTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Failed to load reference timezone %q, falling back to UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// DayKey returns the UTC calendar date of t as a stable string. This is the
// rotation period key for daily challenges.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// WeekKey returns the Monday of t's UTC ISO week as a stable string. This is
// the rotation period key for weekly challenges.
func WeekKey(t time.Time) string {
	return WeekStartUTC(t).Format(dayKeyLayout)
}

// WeekStartUTC returns the most recent Monday 00:00 UTC at or before t.
// The weekly leaderboard reset window starts here.
func WeekStartUTC(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar date.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SameUTCWeek reports whether a and b fall in the same UTC ISO week.
func SameUTCWeek(a, b time.Time) bool {
	return WeekStartUTC(a).Equal(WeekStartUTC(b))
}

// CivilDate is a timezone-resolved calendar date.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateIn resolves t to a calendar date in loc.
func DateIn(t time.Time, loc *time.Location) CivilDate {
	y, m, d := t.In(loc).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// DaysBetween returns b - a in whole calendar days. Both dates are treated as
// midnights in UTC so the count is immune to DST offsets inside the
// reference zone; only the resolved calendar dates matter.
func DaysBetween(a, b CivilDate) int {
	at := time.Date(a.Year, a.Month, a.Day, 0, 0, 0, 0, time.UTC)
	bt := time.Date(b.Year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}

// NextWeekStartUTC returns the first Monday 00:00 UTC strictly after t.
// The reset worker sleeps until this instant.
func NextWeekStartUTC(t time.Time) time.Time {
	return WeekStartUTC(t).AddDate(0, 0, 7)
}
