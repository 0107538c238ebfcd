package slots

import (
	"testing"
	"time"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/models"
)

func day(d int) calendar.Date {
	return calendar.MustNew(2025, time.January, d)
}

func bookingLadder() []calendar.TimeOfDay {
	return Ladder(calendar.MustTime(8, 0), calendar.MustTime(17, 0), 30)
}

func TestLadder(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		interval  int
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{name: "booking", first: "08:00", last: "17:00", interval: 30, wantLen: 19, wantFirst: "08:00", wantLast: "17:00"},
		{name: "picker", first: "08:00", last: "18:00", interval: 30, wantLen: 21, wantFirst: "08:00", wantLast: "18:00"},
		{name: "hourly", first: "08:00", last: "17:00", interval: 60, wantLen: 10, wantFirst: "08:00", wantLast: "17:00"},
		{name: "inverted", first: "17:00", last: "08:00", interval: 30, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ladder(calendar.MustParseTime(tt.first), calendar.MustParseTime(tt.last), tt.interval)
			if len(got) != tt.wantLen {
				t.Fatalf("len(Ladder()) = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen == 0 {
				return
			}
			if got[0].Wire() != tt.wantFirst || got[len(got)-1].Wire() != tt.wantLast {
				t.Errorf("Ladder() spans %s..%s", got[0], got[len(got)-1])
			}
			for _, s := range got {
				if !s.OnGrid(tt.interval) {
					t.Errorf("slot %s off grid", s)
				}
			}
		})
	}
}

func TestFreeCellBecomesPast(t *testing.T) {
	week := calendar.WeekOf(day(5))
	nine := calendar.MustTime(9, 0)

	tests := []struct {
		name  string
		today calendar.Date
		want  State
	}{
		{name: "before the day", today: day(8), want: Free},
		{name: "on the day", today: day(10), want: Free},
		{name: "after the day", today: day(11), want: Past},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(week, nil, bookingLadder(), tt.today)
			cell, ok := g.At(day(10), nine)
			if !ok {
				t.Fatal("cell (2025-01-10, 09:00) missing from grid")
			}
			if cell.State != tt.want {
				t.Errorf("State = %v, want %v", cell.State, tt.want)
			}
		})
	}
}

func TestClassifyAndDispatch(t *testing.T) {
	week := calendar.WeekOf(day(5))
	appts := []models.Appointment{
		{ID: 1, Date: day(10), Time: calendar.MustTime(9, 0), IsOwn: true, CanEdit: true, Status: models.StatusScheduled},
		{ID: 2, Date: day(10), Time: calendar.MustTime(10, 0), IsOwn: false, Status: models.StatusScheduled},
		{ID: 3, Date: day(10), Time: calendar.MustTime(11, 0), IsOwn: true, CanEdit: false, Status: models.StatusRescheduled},
		{ID: 4, Date: day(10), Time: calendar.MustTime(12, 0), IsOwn: true, CanEdit: true, Status: models.StatusCheckedIn},
		{ID: 5, Date: day(10), Time: calendar.MustTime(13, 0), IsOwn: true, CanEdit: true, Status: models.StatusCancelled},
		{ID: 6, Date: day(6), Time: calendar.MustTime(9, 0), IsOwn: true, CanEdit: true, Status: models.StatusScheduled},
	}
	g := Build(week, appts, bookingLadder(), day(8))

	tests := []struct {
		name       string
		date       calendar.Date
		time       string
		wantState  State
		wantAction Action
		wantID     int64
	}{
		{name: "own editable", date: day(10), time: "09:00", wantState: OwnOccupied, wantAction: ActionEdit, wantID: 1},
		{name: "other supplier", date: day(10), time: "10:00", wantState: OtherOccupied, wantAction: ActionNone, wantID: 2},
		{name: "own locked", date: day(10), time: "11:00", wantState: OwnOccupied, wantAction: ActionNone, wantID: 3},
		{name: "own checked in", date: day(10), time: "12:00", wantState: OwnOccupied, wantAction: ActionNone, wantID: 4},
		{name: "cancelled frees slot", date: day(10), time: "13:00", wantState: Free, wantAction: ActionCreate},
		{name: "free", date: day(10), time: "08:30", wantState: Free, wantAction: ActionCreate},
		{name: "past own", date: day(6), time: "09:00", wantState: Past, wantAction: ActionNone, wantID: 6},
		{name: "past free", date: day(7), time: "09:00", wantState: Past, wantAction: ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := g.At(tt.date, calendar.MustParseTime(tt.time))
			if !ok {
				t.Fatal("cell missing")
			}
			if cell.State != tt.wantState {
				t.Errorf("State = %v, want %v", cell.State, tt.wantState)
			}
			if got := cell.Action(); got != tt.wantAction {
				t.Errorf("Action() = %v, want %v", got, tt.wantAction)
			}
			var gotID int64
			if cell.Appointment != nil {
				gotID = cell.Appointment.ID
			}
			if gotID != tt.wantID {
				t.Errorf("Appointment ID = %d, want %d", gotID, tt.wantID)
			}
		})
	}
}

func TestSecondsAreTruncatedForLookup(t *testing.T) {
	var appt models.Appointment
	if err := appt.Time.UnmarshalText([]byte("09:00:00")); err != nil {
		t.Fatal(err)
	}
	appt.Date = day(10)
	appt.IsOwn = true

	g := Build(calendar.WeekOf(day(10)), []models.Appointment{appt}, bookingLadder(), day(8))
	cell, _ := g.At(day(10), calendar.MustTime(9, 0))
	if cell.State != OwnOccupied {
		t.Errorf("State = %v, want own", cell.State)
	}
}

func TestOutsideLadder(t *testing.T) {
	appts := []models.Appointment{
		{ID: 9, Date: day(9), Time: calendar.MustTime(17, 30), IsOwn: true},
		{ID: 8, Date: day(8), Time: calendar.MustTime(7, 0), IsOwn: false},
		{ID: 7, Date: day(20), Time: calendar.MustTime(9, 0), IsOwn: true},
	}
	g := Build(calendar.WeekOf(day(5)), appts, bookingLadder(), day(1))

	if len(g.Outside) != 2 {
		t.Fatalf("len(Outside) = %d, want 2", len(g.Outside))
	}
	if g.Outside[0].ID != 8 || g.Outside[1].ID != 9 {
		t.Errorf("Outside not ordered by date: %d, %d", g.Outside[0].ID, g.Outside[1].ID)
	}
}

func TestGridShape(t *testing.T) {
	g := Build(calendar.WeekOf(day(5)), nil, bookingLadder(), day(1))
	if len(g.Rows) != 19 {
		t.Fatalf("rows = %d, want 19", len(g.Rows))
	}
	if c, ok := g.Cell(0, 0); !ok || c.Date != day(5) || c.Time.Wire() != "08:00" {
		t.Errorf("Cell(0,0) = %+v", c)
	}
	if _, ok := g.Cell(19, 0); ok {
		t.Error("Cell(19,0) should be out of range")
	}
	if got := g.Counts()[Free]; got != 19*7 {
		t.Errorf("free cells = %d, want %d", got, 19*7)
	}
}
