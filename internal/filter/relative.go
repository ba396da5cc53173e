package filter

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RelativeDate is a named date range resolved against the current day
type RelativeDate int

const (
	Today RelativeDate = iota
	Yesterday
	Tomorrow
	ThisWeek
	LastWeek
	NextWeek
	ThisMonth
	LastMonth
	NextMonth
	Last7Days
	Last30Days
	ThisSchoolYear
)

// RelativeDates lists every relative date in matching order
var RelativeDates = []RelativeDate{
	Today, Yesterday, Tomorrow,
	ThisWeek, LastWeek, NextWeek,
	ThisMonth, LastMonth, NextMonth,
	Last7Days, Last30Days,
	ThisSchoolYear,
}

// SchoolYearStartMonth is the month a school year begins in
const SchoolYearStartMonth = time.July

var relativeDateNames = map[RelativeDate]string{
	Today:          "Today",
	Yesterday:      "Yesterday",
	Tomorrow:       "Tomorrow",
	ThisWeek:       "This week",
	LastWeek:       "Last week",
	NextWeek:       "Next week",
	ThisMonth:      "This month",
	LastMonth:      "Last month",
	NextMonth:      "Next month",
	Last7Days:      "Last 7 days",
	Last30Days:     "Last 30 days",
	ThisSchoolYear: "This school year",
}

func (r RelativeDate) String() string {
	if name, ok := relativeDateNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseRelativeDate matches a relative date by name, ignoring case and spaces
func ParseRelativeDate(s string) (RelativeDate, error) {
	want := normalizeName(s)
	for _, r := range RelativeDates {
		if normalizeName(r.String()) == want {
			return r, nil
		}
	}
	return 0, errors.Errorf("unknown relative date %q", s)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Range resolves the relative date to an inclusive pair of days, both at
// midnight in now's location. Weeks run Sunday through Saturday.
func (r RelativeDate) Range(now time.Time) (time.Time, time.Time) {
	today := startOfDay(now)

	switch r {
	case Today:
		return today, today
	case Yesterday:
		d := today.AddDate(0, 0, -1)
		return d, d
	case Tomorrow:
		d := today.AddDate(0, 0, 1)
		return d, d
	case ThisWeek, LastWeek, NextWeek:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		switch r {
		case LastWeek:
			start = start.AddDate(0, 0, -7)
		case NextWeek:
			start = start.AddDate(0, 0, 7)
		}
		return start, start.AddDate(0, 0, 6)
	case ThisMonth, LastMonth, NextMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		switch r {
		case LastMonth:
			start = start.AddDate(0, -1, 0)
		case NextMonth:
			start = start.AddDate(0, 1, 0)
		}
		return start, start.AddDate(0, 1, -1)
	case Last7Days:
		return today.AddDate(0, 0, -6), today
	case Last30Days:
		return today.AddDate(0, 0, -29), today
	case ThisSchoolYear:
		year := today.Year()
		if today.Month() < SchoolYearStartMonth {
			year--
		}
		start := time.Date(year, SchoolYearStartMonth, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, -1)
	}
	return today, today
}

// RelativeFromRange finds the relative date that resolves to start..end on
// the day of now. When two relative dates resolve to the same days the first
// in RelativeDates wins.
func RelativeFromRange(start, end, now time.Time) (RelativeDate, bool) {
	for _, r := range RelativeDates {
		s, e := r.Range(now)
		if sameDay(s, start) && sameDay(e, end) {
			return r, true
		}
	}
	return 0, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
