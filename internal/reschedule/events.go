package reschedule

import "github.com/julianstephens/dockbook/internal/models"

// Event is an input to Session.Handle.
type Event interface {
	event()
}

// Edit changes one form field.
type Edit struct {
	Field Field
	Value string
}

// Submit asks to send the form.
type Submit struct{}

// ProvideReason answers the reschedule prompt.
type ProvideReason struct {
	Reason string
}

// CancelReason dismisses the reschedule prompt and reverts date and time.
type CancelReason struct{}

// Retry resends the payload of a failed submission.
type Retry struct{}

// Resolved reports a successful create or update.
type Resolved struct {
	Appointment models.Appointment
}

// Rejected reports a failed create or update.
type Rejected struct {
	Err error
}

func (Edit) event()          {}
func (Submit) event()        {}
func (ProvideReason) event() {}
func (CancelReason) event()  {}
func (Retry) event()         {}
func (Resolved) event()      {}
func (Rejected) event()      {}

// Effect is work the host performs on the session's behalf.
type Effect interface {
	effect()
}

// CreateAppointment sends a new booking.
type CreateAppointment struct {
	Payload models.Payload
}

// UpdateAppointment sends changes to an existing booking.
type UpdateAppointment struct {
	ID      int64
	Payload models.Payload
}

// Refetch reloads the visible week.
type Refetch struct{}

// Close tears the form down.
type Close struct{}

func (CreateAppointment) effect() {}
func (UpdateAppointment) effect() {}
func (Refetch) effect()           {}
func (Close) effect()             {}
