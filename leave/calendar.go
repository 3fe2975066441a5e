/*
calendar.go - Business day arithmetic and holiday calendars

PURPOSE:
  Converts a date range into the chargeable day count a request consumes.
  The base rule is simple and fixed: count weekdays (Mon-Fri) in the closed
  interval [start, end]. A HolidayCalendar can additionally exclude company
  holidays; the default calendar excludes nothing.

REPRODUCIBILITY:
  The chargeable day count is computed once at submission and stored on the
  request. It is never recomputed retroactively, even if the calendar
  changes later - historical requests must stay as charged.

SEE ALSO:
  - workflow.go: The only caller at submission time
*/
package leave

import "time"

// =============================================================================
// BUSINESS DAY CALCULATOR
// =============================================================================

// ChargeableDays counts weekdays in the closed interval [start, end].
// Callers must reject start > end before calling; for such a pathological
// call it returns 0.
func ChargeableDays(start, end time.Time) int {
	return ChargeableDaysWithCalendar(start, end, nil, "")
}

// ChargeableDaysWithCalendar counts weekdays in [start, end], additionally
// skipping dates the calendar reports as holidays. A nil calendar behaves
// like ChargeableDays.
func ChargeableDaysWithCalendar(start, end time.Time, cal HolidayCalendar, companyID string) int {
	start = truncateDay(start)
	end = truncateDay(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) {
			continue
		}
		if cal != nil && cal.IsHoliday(companyID, d) {
			continue
		}
		days++
	}
	return days
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a company holiday that does not count against leave.
type Holiday struct {
	ID        string
	CompanyID string // empty = global
	Date      time.Time
	Name      string
}

// HolidayCalendar provides holiday lookup.
type HolidayCalendar interface {
	// IsHoliday checks if a date is a holiday for the given company.
	// Company-specific holidays take precedence over global ones.
	IsHoliday(companyID string, date time.Time) bool
}

// NoHolidays is the default calendar: every weekday is chargeable.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(string, time.Time) bool { return false }

// StaticCalendar is a fixed in-memory holiday set, keyed by date.
type StaticCalendar struct {
	holidays map[string][]Holiday // key: YYYY-MM-DD
}

func NewStaticCalendar(holidays []Holiday) *StaticCalendar {
	c := &StaticCalendar{holidays: make(map[string][]Holiday)}
	for _, h := range holidays {
		k := truncateDay(h.Date).Format("2006-01-02")
		c.holidays[k] = append(c.holidays[k], h)
	}
	return c
}

func (c *StaticCalendar) IsHoliday(companyID string, date time.Time) bool {
	for _, h := range c.holidays[truncateDay(date).Format("2006-01-02")] {
		if h.CompanyID == "" || h.CompanyID == companyID {
			return true
		}
	}
	return false
}
