package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/leave"
)

func TestChargeableDays_FullWorkWeek(t *testing.T) {
	// Mon Mar 2 to Fri Mar 6, 2026
	assert.Equal(t, 5, leave.ChargeableDays(date(2), date(6)))
}

func TestChargeableDays_SingleDay(t *testing.T) {
	assert.Equal(t, 1, leave.ChargeableDays(date(4), date(4)))
}

func TestChargeableDays_WeekendOnly_Zero(t *testing.T) {
	// Sat Mar 7 to Sun Mar 8
	assert.Equal(t, 0, leave.ChargeableDays(date(7), date(8)))
}

func TestChargeableDays_SpanningWeekend(t *testing.T) {
	// Fri Mar 6 to Mon Mar 9: only Friday and Monday count
	assert.Equal(t, 2, leave.ChargeableDays(date(6), date(9)))
}

func TestChargeableDays_TwoFullWeeks(t *testing.T) {
	// Mon Mar 2 to Fri Mar 13
	assert.Equal(t, 10, leave.ChargeableDays(date(2), date(13)))
}

func TestChargeableDays_StartAfterEnd_Zero(t *testing.T) {
	assert.Equal(t, 0, leave.ChargeableDays(date(10), date(5)))
}

func TestChargeableDays_TimeOfDayIgnored(t *testing.T) {
	// A late-evening start still counts the full day
	start := time.Date(2026, time.March, 2, 23, 30, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 6, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, leave.ChargeableDays(start, end))
}

func TestChargeableDaysWithCalendar_SkipsHolidays(t *testing.T) {
	cal := leave.NewStaticCalendar([]leave.Holiday{
		{ID: "h1", Date: date(4), Name: "Founders Day"},
	})
	assert.Equal(t, 4, leave.ChargeableDaysWithCalendar(date(2), date(6), cal, ""))
}

func TestChargeableDaysWithCalendar_WeekendHolidayNoDoubleCount(t *testing.T) {
	// A holiday falling on a Saturday changes nothing
	cal := leave.NewStaticCalendar([]leave.Holiday{
		{ID: "h1", Date: date(7), Name: "Observed Saturday"},
	})
	assert.Equal(t, 2, leave.ChargeableDaysWithCalendar(date(6), date(9), cal, ""))
}

func TestStaticCalendar_CompanyScoping(t *testing.T) {
	cal := leave.NewStaticCalendar([]leave.Holiday{
		{ID: "h1", CompanyID: "acme", Date: date(4)},
		{ID: "h2", CompanyID: "", Date: date(5)}, // global
	})

	assert.True(t, cal.IsHoliday("acme", date(4)))
	assert.False(t, cal.IsHoliday("other", date(4)))
	assert.True(t, cal.IsHoliday("acme", date(5)))
	assert.True(t, cal.IsHoliday("other", date(5)))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC)
	assert.True(t, leave.SameDay(a, b))
	assert.False(t, leave.SameDay(a, date(3)))
}
