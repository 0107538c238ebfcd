package calendar

import "time"

// DaysPerWeek is the fixed width of a WeekWindow.
const DaysPerWeek = 7

// WeekStart rounds d down to the most recent Sunday. A Sunday is returned unchanged.
func WeekStart(d Date) Date {
	return d.AddDays(-int(d.Weekday()))
}

// WeekDates returns the seven consecutive days starting at start.
func WeekDates(start Date) [DaysPerWeek]Date {
	var days [DaysPerWeek]Date
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

// Week is the seven-day span rendered in the scheduling grid. The zero value
// is not usable; build one with WeekOf.
type Week struct {
	start Date
}

// WeekOf returns the week containing d.
func WeekOf(d Date) Week {
	return Week{start: WeekStart(d)}
}

func (w Week) Start() Date { return w.start }
func (w Week) End() Date   { return w.start.AddDays(DaysPerWeek - 1) }

func (w Week) Days() [DaysPerWeek]Date {
	return WeekDates(w.start)
}

// Next moves the anchor forward by seven days.
func (w Week) Next() Week { return Week{start: w.start.AddDays(DaysPerWeek)} }

// Prev moves the anchor back by seven days.
func (w Week) Prev() Week { return Week{start: w.start.AddDays(-DaysPerWeek)} }

// Contains reports whether d falls inside the window.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.start) && !d.After(w.End())
}

func (w Week) IsZero() bool { return w.start.IsZero() }

func (w Week) String() string {
	return w.start.Display() + " - " + w.End().Display()
}

// CurrentWeek returns the week containing today in loc.
func CurrentWeek(now time.Time, loc *time.Location) Week {
	return WeekOf(Today(now, loc))
}
