package reschedule

import (
	"net/http"
	"strings"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/models"
)

// State is the submission state of an edit session.
type State int

const (
	Idle State = iota
	Submitting
	Success
	NeedsReason
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case NeedsReason:
		return "needs-reason"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Mode tells a booking from an edit of an existing appointment.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Field names an editable form field.
type Field int

const (
	FieldDate Field = iota
	FieldTime
	FieldPurchaseOrder
	FieldTruckPlate
	FieldDriverName
)

func (f Field) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldPurchaseOrder:
		return "purchase_order"
	case FieldTruckPlate:
		return "truck_plate"
	case FieldDriverName:
		return "driver_name"
	}
	return "unknown"
}

// Draft holds the form values. Date and Time are wire strings as reported
// by the masked inputs, empty when the input holds no valid value.
type Draft struct {
	Date          string
	Time          string
	PurchaseOrder string
	TruckPlate    string
	DriverName    string
}

func (d Draft) get(f Field) string {
	switch f {
	case FieldDate:
		return d.Date
	case FieldTime:
		return d.Time
	case FieldPurchaseOrder:
		return d.PurchaseOrder
	case FieldTruckPlate:
		return d.TruckPlate
	case FieldDriverName:
		return d.DriverName
	}
	return ""
}

func (d *Draft) set(f Field, v string) {
	switch f {
	case FieldDate:
		d.Date = v
	case FieldTime:
		d.Time = v
	case FieldPurchaseOrder:
		d.PurchaseOrder = v
	case FieldTruckPlate:
		d.TruckPlate = v
	case FieldDriverName:
		d.DriverName = v
	}
}

// Missing lists required fields that are blank after trimming.
func (d Draft) Missing() []Field {
	var out []Field
	for f := FieldDate; f <= FieldDriverName; f++ {
		if strings.TrimSpace(d.get(f)) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Session is one create or edit form lifecycle. It is a value: Handle returns
// the next Session instead of mutating the receiver.
type Session struct {
	Mode          Mode
	AppointmentID int64
	OriginalDate  string
	OriginalTime  string
	Current       Draft
	IsReschedule  bool
	PendingReason string

	State State
	// Err is the most recent failure, nil after a successful transition.
	Err error
	// Notice is the operator-facing line for Err or the current prompt.
	Notice string
	// Result is the appointment returned on Success.
	Result *models.Appointment

	interval   int
	plantID    int64
	inFlight   models.Payload
	hasPayload bool
}

// NewCreate opens a booking form pre-filled with a slot. An off-grid start
// is rounded onto the slot grid.
func NewCreate(d calendar.Date, t calendar.TimeOfDay, interval int, plantID int64) Session {
	interval = normalizeInterval(interval)
	return Session{
		Mode:     ModeCreate,
		Current:  Draft{Date: d.Wire(), Time: snapTime(t.Wire(), interval)},
		interval: interval,
		plantID:  plantID,
	}
}

// NewEdit opens an edit form on an existing appointment and captures its
// original date and time.
func NewEdit(a models.Appointment, interval int) Session {
	return Session{
		Mode:          ModeEdit,
		AppointmentID: a.ID,
		OriginalDate:  a.Date.Wire(),
		OriginalTime:  a.Time.Wire(),
		Current: Draft{
			Date:          a.Date.Wire(),
			Time:          a.Time.Wire(),
			PurchaseOrder: a.PurchaseOrder,
			TruckPlate:    a.TruckPlate,
			DriverName:    a.DriverName,
		},
		interval: normalizeInterval(interval),
		plantID:  a.PlantID,
	}
}

func normalizeInterval(interval int) int {
	if interval <= 0 {
		return constants.DefaultSlotIntervalMin
	}
	return interval
}

// snapTime rounds a parseable HH:MM onto the slot grid. Anything else is
// returned unchanged for Payload to reject.
func snapTime(v string, interval int) string {
	t, err := calendar.ParseTime(v)
	if err != nil {
		return v
	}
	return calendar.RoundToInterval(t.Hour, t.Minute, interval).Wire()
}

// onGrid accepts slot-grid starts, the 23:59 clamp, and an edited
// appointment's untouched original time.
func (s Session) onGrid(t calendar.TimeOfDay) bool {
	if t.OnGrid(s.interval) || t == calendar.Latest {
		return true
	}
	return s.Mode == ModeEdit && t.Wire() == s.OriginalTime
}

// Changed reports whether an existing appointment's date or time differs from
// the values captured when the session opened.
func (s Session) Changed() bool {
	if s.Mode != ModeEdit {
		return false
	}
	return s.Current.Date != s.OriginalDate || s.Current.Time != s.OriginalTime
}

// CanSubmit gates the submit control: every required field is filled and
// nothing is in flight.
func (s Session) CanSubmit() bool {
	switch s.State {
	case Submitting, Success, NeedsReason:
		return false
	}
	return len(s.Current.Missing()) == 0
}

// Done reports whether the session has reached its terminal state.
func (s Session) Done() bool { return s.State == Success }

// Payload builds the request body from the current draft.
func (s Session) Payload() (models.Payload, error) {
	if missing := s.Current.Missing(); len(missing) > 0 {
		return models.Payload{}, apperrors.Validation(missing[0].String(), "required")
	}
	d, err := calendar.Parse(s.Current.Date)
	if err != nil {
		return models.Payload{}, apperrors.Validation("date", err.Error())
	}
	t, err := calendar.ParseTime(s.Current.Time)
	if err != nil {
		return models.Payload{}, apperrors.Validation("time", err.Error())
	}
	if !s.onGrid(t) {
		return models.Payload{}, apperrors.Validation("time", "not on the slot grid")
	}
	p := models.Payload{
		Date:          d,
		Time:          t,
		TimeEnd:       t.Add(s.interval),
		PurchaseOrder: strings.TrimSpace(s.Current.PurchaseOrder),
		TruckPlate:    strings.ToUpper(strings.TrimSpace(s.Current.TruckPlate)),
		DriverName:    strings.TrimSpace(s.Current.DriverName),
		PlantID:       s.plantID,
	}
	if s.IsReschedule {
		p.RescheduleReason = strings.TrimSpace(s.PendingReason)
	}
	return p, nil
}

func (s Session) submit() (Session, []Effect) {
	p, err := s.Payload()
	if err != nil {
		s.Err = err
		s.Notice = err.Error()
		return s, nil
	}
	return s.send(p)
}

func (s Session) send(p models.Payload) (Session, []Effect) {
	s.State = Submitting
	s.Err = nil
	s.Notice = ""
	s.inFlight = p
	s.hasPayload = true
	if s.Mode == ModeEdit {
		return s, []Effect{UpdateAppointment{ID: s.AppointmentID, Payload: p}}
	}
	return s, []Effect{CreateAppointment{Payload: p}}
}

func (s Session) needReason(notice string) Session {
	s.State = NeedsReason
	s.IsReschedule = true
	s.Err = nil
	s.Notice = notice
	return s
}

// Handle applies one event and returns the next session plus the effects the
// host must perform. Events that make no sense in the current state are
// ignored and yield no effects.
func (s Session) Handle(ev Event) (Session, []Effect) {
	switch e := ev.(type) {
	case Edit:
		switch s.State {
		case Submitting, Success:
			return s, nil
		case Failed:
			s.State = Idle
			s.hasPayload = false
		}
		v := e.Value
		if e.Field == FieldTime && v != s.OriginalTime {
			v = snapTime(v, s.interval)
		}
		s.Current.set(e.Field, v)
		s.Err = nil
		if s.State != NeedsReason {
			s.Notice = ""
		}
		return s, nil

	case Submit:
		if s.State != Idle && s.State != Failed {
			return s, nil
		}
		if missing := s.Current.Missing(); len(missing) > 0 {
			s.Err = apperrors.Validation(missing[0].String(), "required")
			s.Notice = "Fill in every field before submitting"
			return s, nil
		}
		if s.Changed() && strings.TrimSpace(s.PendingReason) == "" {
			return s.needReason("Date or time changed: enter a reschedule reason"), nil
		}
		return s.submit()

	case ProvideReason:
		if s.State != NeedsReason {
			return s, nil
		}
		reason := strings.TrimSpace(e.Reason)
		if reason == "" {
			s.Err = apperrors.Validation("motivo_reagendamento", "required")
			s.Notice = "A reschedule reason is required"
			return s, nil
		}
		s.PendingReason = reason
		return s.submit()

	case CancelReason:
		if s.State != NeedsReason {
			return s, nil
		}
		s.Current.Date = s.OriginalDate
		s.Current.Time = s.OriginalTime
		s.IsReschedule = false
		s.PendingReason = ""
		s.State = Idle
		s.Err = nil
		s.Notice = ""
		return s, nil

	case Retry:
		if s.State != Failed || !s.hasPayload {
			return s, nil
		}
		return s.send(s.inFlight)

	case Resolved:
		if s.State != Submitting {
			return s, nil
		}
		appt := e.Appointment
		s.State = Success
		s.Result = &appt
		s.Err = nil
		s.Notice = ""
		s.hasPayload = false
		return s, []Effect{Refetch{}, Close{}}

	case Rejected:
		if s.State != Submitting {
			return s, nil
		}
		return s.reject(e.Err)
	}
	return s, nil
}

func (s Session) reject(err error) (Session, []Effect) {
	if apperrors.RequiresReason(err) {
		s.PendingReason = ""
		return s.needReason("The service requires a reschedule reason for this change"), nil
	}

	s.State = Failed
	s.Err = err
	switch apperrors.KindOf(err) {
	case apperrors.KindConflict:
		var ce *apperrors.ConflictError
		if apperrors.As(err, &ce) && ce.Status == http.StatusConflict {
			s.Notice = "That slot is no longer available: pick another time"
		} else {
			s.Notice = err.Error()
		}
	case apperrors.KindTransport:
		s.Notice = "Could not reach the appointment service"
	default:
		s.Notice = err.Error()
	}
	return s, nil
}
