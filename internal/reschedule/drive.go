package reschedule

import (
	"context"

	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
)

// Submitter performs the remote half of a submission.
type Submitter interface {
	CreateAppointment(ctx context.Context, p models.Payload) (models.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, p models.Payload) (models.Appointment, error)
}

// ReasonFunc asks the operator for a reschedule reason. ok=false cancels.
type ReasonFunc func(s Session) (reason string, ok bool)

// Perform runs a submission effect and converts its outcome into an event.
// Effects that need no remote call return nil.
func Perform(ctx context.Context, sub Submitter, eff Effect) Event {
	switch e := eff.(type) {
	case CreateAppointment:
		appt, err := sub.CreateAppointment(ctx, e.Payload)
		if err != nil {
			return Rejected{Err: err}
		}
		return Resolved{Appointment: appt}
	case UpdateAppointment:
		appt, err := sub.UpdateAppointment(ctx, e.ID, e.Payload)
		if err != nil {
			return Rejected{Err: err}
		}
		return Resolved{Appointment: appt}
	}
	return nil
}

// maxReasonPrompts bounds how often Drive asks before giving up.
const maxReasonPrompts = 3

// Drive feeds ev to the session and performs its effects synchronously until
// it settles. Prompts for a reason go through ask; a nil ask, a declined
// prompt or too many prompts cancel the reschedule.
func Drive(ctx context.Context, sub Submitter, s Session, ev Event, ask ReasonFunc) Session {
	pending := []Event{ev}
	prompts := 0
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		var effects []Effect
		s, effects = s.Handle(next)
		for _, eff := range effects {
			if out := Perform(ctx, sub, eff); out != nil {
				pending = append(pending, out)
			}
		}

		if s.State == NeedsReason && len(pending) == 0 {
			logger.Info("Reschedule reason required", "appointment", s.AppointmentID)
			prompts++
			if ask == nil || prompts > maxReasonPrompts {
				s, _ = s.Handle(CancelReason{})
				break
			}
			reason, ok := ask(s)
			if !ok {
				s, _ = s.Handle(CancelReason{})
				break
			}
			pending = append(pending, ProvideReason{Reason: reason})
		}
	}
	return s
}
