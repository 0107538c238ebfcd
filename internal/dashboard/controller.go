package dashboard

import (
	"context"
	"time"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/reschedule"
	"github.com/julianstephens/dockbook/internal/slots"
)

// Fetcher loads the appointments of the week starting at weekStart.
type Fetcher interface {
	GetAppointments(ctx context.Context, weekStart calendar.Date) ([]models.Appointment, error)
}

// Options configure a Controller.
type Options struct {
	Ladder   []calendar.TimeOfDay
	Interval int
	PlantID  int64
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Fetch identifies one week request. Seq grows with every request issued.
type Fetch struct {
	Week calendar.Week
	Seq  uint64
}

// FetchResult is the answer to a Fetch.
type FetchResult struct {
	Fetch
	Appointments []models.Appointment
	Err          error
}

// Load performs a fetch. It is safe to call off the update loop.
func Load(ctx context.Context, f Fetcher, req Fetch) FetchResult {
	appts, err := f.GetAppointments(ctx, req.Week.Start())
	return FetchResult{Fetch: req, Appointments: appts, Err: err}
}

// Step is what the host must do after an editor event.
type Step struct {
	// Effects are remote submissions to perform.
	Effects []reschedule.Effect
	// Fetch is set when the week must be reloaded.
	Fetch *Fetch
	// Closed reports that the editor was torn down.
	Closed bool
}

// Controller owns the visible week, its appointments, the grid cursor and the
// single active edit session.
type Controller struct {
	opts Options

	week    calendar.Week
	appts   []models.Appointment
	grid    slots.Grid
	seq     uint64
	loading bool
	err     error

	row, col int

	editor *reschedule.Session
	last   *models.Appointment
}

// New builds a controller on the current week. Call Refetch to load it.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultSlotIntervalMin
	}
	c := &Controller{opts: opts}
	c.week = calendar.CurrentWeek(opts.Now(), opts.Location)
	c.rebuild()
	return c
}

func (c *Controller) Week() calendar.Week                 { return c.week }
func (c *Controller) Grid() slots.Grid                    { return c.grid }
func (c *Controller) Loading() bool                       { return c.loading }
func (c *Controller) Err() error                          { return c.err }
func (c *Controller) Appointments() []models.Appointment { return c.appts }
func (c *Controller) Editor() *reschedule.Session         { return c.editor }

// LastResult is the appointment returned by the most recent successful submit.
func (c *Controller) LastResult() *models.Appointment { return c.last }

// Today returns the operator's calendar day.
func (c *Controller) Today() calendar.Date {
	return calendar.Today(c.opts.Now(), c.opts.Location)
}

func (c *Controller) rebuild() {
	c.grid = slots.Build(c.week, c.appts, c.opts.Ladder, c.Today())
	c.clampCursor()
}

func (c *Controller) issue() Fetch {
	c.seq++
	c.loading = true
	f := Fetch{Week: c.week, Seq: c.seq}
	logger.Debug("Fetch issued", "week", c.week.Start().Wire(), "seq", f.Seq)
	return f
}

func (c *Controller) move(w calendar.Week) Fetch {
	if w != c.week {
		c.week = w
		c.appts = nil
		c.err = nil
		c.rebuild()
	}
	return c.issue()
}

// Refetch reloads the current week.
func (c *Controller) Refetch() Fetch { return c.issue() }

// NextWeek moves the cursor seven days forward.
func (c *Controller) NextWeek() Fetch { return c.move(c.week.Next()) }

// PrevWeek moves the cursor seven days back.
func (c *Controller) PrevWeek() Fetch { return c.move(c.week.Prev()) }

// GoToday moves to the week containing today and selects today's column.
func (c *Controller) GoToday() Fetch {
	return c.JumpTo(c.Today())
}

// JumpTo moves to the week containing d and selects d's column.
func (c *Controller) JumpTo(d calendar.Date) Fetch {
	f := c.move(calendar.WeekOf(d))
	c.col = int(d.Weekday())
	return f
}

// ApplyFetch installs a fetch result. Only the most recently issued fetch is
// applied, even when an older one targeted the same week; it reports whether r
// was used.
func (c *Controller) ApplyFetch(r FetchResult) bool {
	if r.Seq != c.seq || r.Week != c.week {
		logger.Info("Fetch discarded", "week", r.Week.Start().Wire(), "seq", r.Seq, "latest", c.seq)
		return false
	}
	c.loading = false
	if r.Err != nil {
		c.err = r.Err
		logger.Warn("Fetch failed", "week", r.Week.Start().Wire(), "err", r.Err)
		return true
	}
	c.err = nil
	c.appts = r.Appointments
	c.rebuild()
	logger.Debug("Fetch applied", "week", r.Week.Start().Wire(), "appointments", len(r.Appointments))
	return true
}

func (c *Controller) clampCursor() {
	rows := len(c.grid.Rows)
	switch {
	case rows == 0:
		c.row = 0
	case c.row >= rows:
		c.row = rows - 1
	case c.row < 0:
		c.row = 0
	}
	if c.col < 0 {
		c.col = 0
	}
	if c.col >= calendar.DaysPerWeek {
		c.col = calendar.DaysPerWeek - 1
	}
}

// Cursor returns the selected row and column.
func (c *Controller) Cursor() (row, col int) { return c.row, c.col }

// MoveCursor shifts the selection, staying inside the grid.
func (c *Controller) MoveCursor(dRow, dCol int) {
	c.row += dRow
	c.col += dCol
	c.clampCursor()
}

// SetCursor selects a cell directly.
func (c *Controller) SetCursor(row, col int) {
	c.row, c.col = row, col
	c.clampCursor()
}

// Selected returns the cell under the cursor.
func (c *Controller) Selected() (slots.Cell, bool) {
	return c.grid.Cell(c.row, c.col)
}

// Activate applies the click dispatch rule to the selected cell and opens an
// edit session when it yields one. It does nothing while loading or while an
// editor is already open.
func (c *Controller) Activate() (*reschedule.Session, bool) {
	cell, ok := c.Selected()
	if !ok {
		return nil, false
	}
	return c.Click(cell)
}

// Click opens the edit flow for a cell.
func (c *Controller) Click(cell slots.Cell) (*reschedule.Session, bool) {
	if c.editor != nil || c.loading {
		return nil, false
	}
	var s reschedule.Session
	switch cell.Action() {
	case slots.ActionEdit:
		s = reschedule.NewEdit(*cell.Appointment, c.opts.Interval)
	case slots.ActionCreate:
		s = reschedule.NewCreate(cell.Date, cell.Time, c.opts.Interval, c.opts.PlantID)
	default:
		return nil, false
	}
	c.editor = &s
	c.last = nil
	return c.editor, true
}

// Dispatch feeds an event to the open editor and interprets the effects that
// concern the dashboard. Remote submissions are handed back in Step.Effects.
func (c *Controller) Dispatch(ev reschedule.Event) Step {
	if c.editor == nil {
		return Step{}
	}
	prev := c.editor.State
	next, effects := c.editor.Handle(ev)
	*c.editor = next

	var step Step
	for _, eff := range effects {
		switch eff.(type) {
		case reschedule.Refetch:
			f := c.issue()
			step.Fetch = &f
		case reschedule.Close:
			c.last = next.Result
			c.editor = nil
			step.Closed = true
		default:
			step.Effects = append(step.Effects, eff)
		}
	}
	if rej, ok := ev.(reschedule.Rejected); ok {
		logger.Warn("Submission rejected", "appointment", next.AppointmentID, "state", next.State, "err", rej.Err)
	}
	if next.State == reschedule.NeedsReason && prev != reschedule.NeedsReason {
		logger.Info("Reschedule reason required", "appointment", next.AppointmentID)
	}
	if step.Closed {
		logger.Info("Submission accepted", "appointment", next.AppointmentID)
	}
	return step
}

// CloseEditor discards the open editor without submitting.
func (c *Controller) CloseEditor() {
	if c.editor != nil && c.editor.State == reschedule.Submitting {
		return
	}
	c.editor = nil
}

// CancelTarget returns the selected appointment when the supplier may cancel it.
func (c *Controller) CancelTarget() (models.Appointment, bool) {
	cell, ok := c.Selected()
	if !ok || cell.Action() != slots.ActionEdit || cell.Appointment.Status != models.StatusScheduled {
		return models.Appointment{}, false
	}
	return *cell.Appointment, true
}

// Cancelled records a finished cancellation and reloads the week.
func (c *Controller) Cancelled(id int64, err error) (Fetch, bool) {
	if err != nil {
		c.err = err
		logger.Warn("Cancellation failed", "appointment", id, "err", err)
		return Fetch{}, false
	}
	logger.Info("Appointment cancelled", "appointment", id)
	return c.issue(), true
}
