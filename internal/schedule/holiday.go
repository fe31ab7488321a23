package schedule

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"
)

// HolidayCalendar tells whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

// FrenchCalendar reports the French public holidays.
type FrenchCalendar struct {
	cal *cal.BusinessCalendar
}

// NewFrenchCalendar returns a calendar loaded with the national French holidays.
func NewFrenchCalendar() *FrenchCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(fr.Holidays...)
	return &FrenchCalendar{cal: c}
}

// IsHoliday reports whether t falls on a public holiday. Only the actual
// date counts; France does not shift holidays that fall on a weekend.
func (f *FrenchCalendar) IsHoliday(t time.Time) bool {
	actual, _, _ := f.cal.IsHoliday(t)
	return actual
}

// HolidayName returns the name of the holiday on t, or "".
func (f *FrenchCalendar) HolidayName(t time.Time) string {
	actual, _, h := f.cal.IsHoliday(t)
	if !actual || h == nil {
		return ""
	}
	return h.Name
}

var _ HolidayCalendar = (*FrenchCalendar)(nil)
