package planner

import (
	"time"

	"github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

// calendar does every date computation in a single reference time zone with ISO weeks.
type calendar struct {
	conf *now.Config
}

func newCalendar(loc *time.Location) calendar {
	return calendar{conf: &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}}
}

func (c calendar) with(t time.Time) *now.Now {
	return c.conf.With(t.In(c.conf.TimeLocation))
}

// day truncates t to the start of its calendar day in the reference zone.
func (c calendar) day(t time.Time) time.Time {
	return c.with(t).BeginningOfDay()
}

// week returns the Monday & Sunday (both at day granularity) of the ISO week containing t.
func (c calendar) week(t time.Time) (monday, sunday time.Time) {
	monday = c.with(t).BeginningOfWeek()
	return monday, c.addDays(monday, 6)
}

// addDays adds n calendar days, keeping midnight across DST changes.
func (c calendar) addDays(t time.Time, n int) time.Time {
	return c.day(t.AddDate(0, 0, n))
}

// nextWeek returns the Monday following the ISO week containing t.
func (c calendar) nextWeek(t time.Time) time.Time {
	monday, _ := c.week(t)
	return c.addDays(monday, 7)
}

// plannerStart picks the first day covered by a new planner: the activation day when it falls
// on/after the reference week's Monday, that Monday otherwise.
func (c calendar) plannerStart(ref, activation time.Time) time.Time {
	monday, _ := c.week(ref)
	act := c.day(activation)
	if !act.Before(monday) {
		return act
	}
	return monday
}
