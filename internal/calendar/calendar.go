// Package calendar provides working-day arithmetic over a holiday set.
package calendar

import "time"

const dayKeyLayout = "2006-01-02"

// Calendar answers working-day questions. Saturday and Sunday are
// non-working unless includeWeekends is set; configured holidays are
// non-working unless skipHolidays is false.
type Calendar struct {
	includeWeekends bool
	skipHolidays    bool
	holidays        map[string]bool
}

// New builds a Calendar from the given holiday dates and flags.
func New(holidays []time.Time, includeWeekends, skipHolidays bool) Calendar {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		set[h.Format(dayKeyLayout)] = true
	}
	return Calendar{
		includeWeekends: includeWeekends,
		skipHolidays:    skipHolidays,
		holidays:        set,
	}
}

// IsWorkingDay reports whether d counts as a working day.
func (c Calendar) IsWorkingDay(d time.Time) bool {
	if !c.includeWeekends {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	if c.skipHolidays && c.holidays[d.Format(dayKeyLayout)] {
		return false
	}
	return true
}

// RollForward returns d if it is a working day, otherwise the next
// working day after it.
func (c Calendar) RollForward(d time.Time) time.Time {
	if c.IsWorkingDay(d) {
		return d
	}
	return c.NextWorkingDay(d)
}

// NextWorkingDay returns the first working day strictly after d.
func (c Calendar) NextWorkingDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if c.IsWorkingDay(d) {
			return d
		}
	}
}

// AddWorkingDays advances d by n working days. d itself is not counted;
// AddWorkingDays(d, 0) returns d unchanged.
func (c Calendar) AddWorkingDays(d time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		d = c.NextWorkingDay(d)
	}
	return d
}
