package slots

import (
	"sort"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/models"
)

// State classifies one (date, time) cell of the weekly grid.
type State int

const (
	Free State = iota
	OwnOccupied
	OtherOccupied
	Past
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case OwnOccupied:
		return "own"
	case OtherOccupied:
		return "occupied"
	case Past:
		return "past"
	}
	return "unknown"
}

// Action is what selecting a cell should open.
type Action int

const (
	ActionNone Action = iota
	ActionEdit
	ActionCreate
)

func (a Action) String() string {
	switch a {
	case ActionEdit:
		return "edit"
	case ActionCreate:
		return "create"
	}
	return "none"
}

// Ladder enumerates slot start times from first to last inclusive at interval
// minute spacing.
func Ladder(first, last calendar.TimeOfDay, interval int) []calendar.TimeOfDay {
	if interval <= 0 || last.Before(first) {
		return nil
	}
	var out []calendar.TimeOfDay
	for m := first.Minutes(); m <= last.Minutes(); m += interval {
		out = append(out, calendar.FromMinutes(m))
	}
	return out
}

// Key identifies a cell. Times are minute precision by construction.
type Key struct {
	Date calendar.Date
	Time calendar.TimeOfDay
}

// Cell is one classified slot.
type Cell struct {
	Date        calendar.Date
	Time        calendar.TimeOfDay
	State       State
	Appointment *models.Appointment
}

// Action applies the click dispatch rule to the cell.
func (c Cell) Action() Action {
	switch c.State {
	case OwnOccupied:
		if c.Appointment != nil && c.Appointment.Editable() {
			return ActionEdit
		}
	case Free:
		return ActionCreate
	}
	return ActionNone
}

// Grid is the classified week. Rows follow the ladder, columns the week days.
type Grid struct {
	Week  calendar.Week
	Days  [calendar.DaysPerWeek]calendar.Date
	Times []calendar.TimeOfDay
	Rows  [][calendar.DaysPerWeek]Cell
	// Outside holds appointments of the week whose time is not on the ladder.
	Outside []models.Appointment

	index map[Key]Cell
}

// Build projects a week's appointments onto the slot ladder. It holds no state
// of its own; call it again whenever the appointments, week or day change.
// Cancelled appointments do not occupy a slot.
func Build(week calendar.Week, appointments []models.Appointment, ladder []calendar.TimeOfDay, today calendar.Date) Grid {
	lookup := make(map[Key]*models.Appointment, len(appointments))
	for i := range appointments {
		a := &appointments[i]
		if a.Status == models.StatusCancelled || !week.Contains(a.Date) {
			continue
		}
		lookup[Key{Date: a.Date, Time: a.Time}] = a
	}

	g := Grid{
		Week:  week,
		Days:  week.Days(),
		Times: ladder,
		Rows:  make([][calendar.DaysPerWeek]Cell, len(ladder)),
		index: make(map[Key]Cell, len(ladder)*calendar.DaysPerWeek),
	}

	placed := make(map[Key]bool, len(lookup))
	for r, t := range ladder {
		for c, d := range g.Days {
			k := Key{Date: d, Time: t}
			appt := lookup[k]
			if appt != nil {
				placed[k] = true
			}
			cell := Cell{Date: d, Time: t, State: classify(d, appt, today), Appointment: appt}
			g.Rows[r][c] = cell
			g.index[k] = cell
		}
	}

	for k, a := range lookup {
		if !placed[k] {
			g.Outside = append(g.Outside, *a)
		}
	}
	sort.Slice(g.Outside, func(i, j int) bool {
		if c := g.Outside[i].Date.Compare(g.Outside[j].Date); c != 0 {
			return c < 0
		}
		return g.Outside[i].Time.Before(g.Outside[j].Time)
	})
	return g
}

func classify(d calendar.Date, appt *models.Appointment, today calendar.Date) State {
	switch {
	case d.Before(today):
		return Past
	case appt == nil:
		return Free
	case appt.IsOwn:
		return OwnOccupied
	default:
		return OtherOccupied
	}
}

// At returns the cell for a date and time.
func (g Grid) At(d calendar.Date, t calendar.TimeOfDay) (Cell, bool) {
	c, ok := g.index[Key{Date: d, Time: t}]
	return c, ok
}

// Cell returns the cell at a row and column; ok is false outside the grid.
func (g Grid) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= calendar.DaysPerWeek {
		return Cell{}, false
	}
	return g.Rows[row][col], true
}

// Counts tallies the cells by state.
func (g Grid) Counts() map[State]int {
	out := make(map[State]int, 4)
	for _, row := range g.Rows {
		for _, c := range row {
			out[c.State]++
		}
	}
	return out
}
