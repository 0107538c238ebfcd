package reschedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/dockbook/internal/calendar"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/models"
)

func existing() models.Appointment {
	return models.Appointment{
		ID:            7,
		Date:          calendar.MustNew(2025, time.January, 10),
		Time:          calendar.MustTime(9, 0),
		TimeEnd:       calendar.MustTime(9, 30),
		PurchaseOrder: "PO-1",
		TruckPlate:    "ABC1D23",
		DriverName:    "Ana",
		Status:        models.StatusScheduled,
		IsOwn:         true,
		CanEdit:       true,
	}
}

func TestSubmitRoutesOnDateTimeDiff(t *testing.T) {
	tests := []struct {
		name       string
		edits      []Edit
		wantState  State
		wantEffect bool
	}{
		{
			name:      "date changed",
			edits:     []Edit{{Field: FieldDate, Value: "2025-01-12"}},
			wantState: NeedsReason,
		},
		{
			name:      "time changed",
			edits:     []Edit{{Field: FieldTime, Value: "10:30"}},
			wantState: NeedsReason,
		},
		{
			name:       "only purchase order changed",
			edits:      []Edit{{Field: FieldPurchaseOrder, Value: "PO-2"}},
			wantState:  Submitting,
			wantEffect: true,
		},
		{
			name: "date changed and changed back",
			edits: []Edit{
				{Field: FieldDate, Value: "2025-01-12"},
				{Field: FieldDate, Value: "2025-01-10"},
			},
			wantState:  Submitting,
			wantEffect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEdit(existing(), 30)
			for _, e := range tt.edits {
				s, _ = s.Handle(e)
			}
			s, effects := s.Handle(Submit{})
			if s.State != tt.wantState {
				t.Fatalf("State = %v, want %v", s.State, tt.wantState)
			}
			if (len(effects) > 0) != tt.wantEffect {
				t.Errorf("effects = %v, wantEffect %v", effects, tt.wantEffect)
			}
			if tt.wantState == NeedsReason && !s.IsReschedule {
				t.Error("IsReschedule = false in NeedsReason")
			}
		})
	}
}

func TestReasonIsCarriedInPayload(t *testing.T) {
	s := NewEdit(existing(), 30)
	s, _ = s.Handle(Edit{Field: FieldDate, Value: "2025-01-12"})
	s, _ = s.Handle(Submit{})

	s, effects := s.Handle(ProvideReason{Reason: "   "})
	if s.State != NeedsReason || len(effects) != 0 {
		t.Fatalf("blank reason: state=%v effects=%v", s.State, effects)
	}
	if apperrors.KindOf(s.Err) != apperrors.KindValidation {
		t.Errorf("blank reason Err = %v, want validation", s.Err)
	}

	s, effects = s.Handle(ProvideReason{Reason: " truck delayed "})
	if s.State != Submitting {
		t.Fatalf("State = %v, want submitting", s.State)
	}
	if len(effects) != 1 {
		t.Fatalf("effects = %v", effects)
	}
	up, ok := effects[0].(UpdateAppointment)
	if !ok {
		t.Fatalf("effect = %T, want UpdateAppointment", effects[0])
	}
	if up.ID != 7 || up.Payload.RescheduleReason != "truck delayed" {
		t.Errorf("payload = %+v", up.Payload)
	}
	if up.Payload.Date != calendar.MustNew(2025, time.January, 12) {
		t.Errorf("payload date = %v", up.Payload.Date)
	}
	if up.Payload.TimeEnd != calendar.MustTime(9, 30) {
		t.Errorf("payload time_end = %v, want 09:30", up.Payload.TimeEnd)
	}
}

func TestCancelReasonRestoresOriginal(t *testing.T) {
	s := NewEdit(existing(), 30)
	s, _ = s.Handle(Edit{Field: FieldPurchaseOrder, Value: "PO-9"})
	s, _ = s.Handle(Edit{Field: FieldTruckPlate, Value: "XYZ9Z99"})
	s, _ = s.Handle(Edit{Field: FieldDate, Value: "2025-01-12"})
	s, _ = s.Handle(Edit{Field: FieldTime, Value: "14:00"})
	s, _ = s.Handle(Submit{})
	if s.State != NeedsReason {
		t.Fatalf("State = %v, want needs-reason", s.State)
	}

	s, effects := s.Handle(CancelReason{})
	if s.State != Idle || len(effects) != 0 {
		t.Fatalf("after cancel: state=%v effects=%v", s.State, effects)
	}
	if s.Current.Date != "2025-01-10" || s.Current.Time != "09:00" {
		t.Errorf("date/time = %s %s, want original", s.Current.Date, s.Current.Time)
	}
	if s.Current.PurchaseOrder != "PO-9" || s.Current.TruckPlate != "XYZ9Z99" || s.Current.DriverName != "Ana" {
		t.Errorf("other fields changed: %+v", s.Current)
	}
	if s.IsReschedule || s.PendingReason != "" {
		t.Errorf("reschedule flags left set: %v %q", s.IsReschedule, s.PendingReason)
	}
}

func TestRemoteReasonRequirement(t *testing.T) {
	s := NewEdit(existing(), 30)
	s, _ = s.Handle(Edit{Field: FieldDriverName, Value: "Bia"})
	s, _ = s.Handle(Submit{})
	if s.State != Submitting {
		t.Fatalf("State = %v, want submitting", s.State)
	}

	rejection := &apperrors.ConflictError{Status: 400, RequiresReason: true, Message: "reason required"}
	s, effects := s.Handle(Rejected{Err: rejection})
	if s.State != NeedsReason || len(effects) != 0 {
		t.Fatalf("after rejection: state=%v effects=%v", s.State, effects)
	}
	if !s.IsReschedule {
		t.Error("IsReschedule = false after server demanded a reason")
	}

	s, effects = s.Handle(ProvideReason{Reason: "plant request"})
	if len(effects) != 1 {
		t.Fatalf("effects = %v", effects)
	}
	if got := effects[0].(UpdateAppointment).Payload.RescheduleReason; got != "plant request" {
		t.Errorf("reason = %q", got)
	}
}

func TestFailureAndRetry(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   apperrors.Kind
		wantNotice string
	}{
		{
			name:       "slot conflict",
			err:        &apperrors.ConflictError{Status: 409, Message: "slot taken"},
			wantKind:   apperrors.KindConflict,
			wantNotice: "That slot is no longer available: pick another time",
		},
		{
			name:       "transport",
			err:        &apperrors.TransportError{Op: "POST /supplier/appointments", Err: errors.New("connection refused")},
			wantKind:   apperrors.KindTransport,
			wantNotice: "Could not reach the appointment service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCreate(calendar.MustNew(2025, time.January, 10), calendar.MustTime(9, 0), 30, 0)
			s, _ = s.Handle(Edit{Field: FieldPurchaseOrder, Value: "PO-1"})
			s, _ = s.Handle(Edit{Field: FieldTruckPlate, Value: "abc1d23"})
			s, _ = s.Handle(Edit{Field: FieldDriverName, Value: "Ana"})

			s, first := s.Handle(Submit{})
			if len(first) != 1 {
				t.Fatalf("effects = %v", first)
			}

			s, _ = s.Handle(Rejected{Err: tt.err})
			if s.State != Failed {
				t.Fatalf("State = %v, want failed", s.State)
			}
			if apperrors.KindOf(s.Err) != tt.wantKind {
				t.Errorf("Err kind = %v, want %v", apperrors.KindOf(s.Err), tt.wantKind)
			}
			if s.Notice != tt.wantNotice {
				t.Errorf("Notice = %q, want %q", s.Notice, tt.wantNotice)
			}

			s, again := s.Handle(Retry{})
			if s.State != Submitting || len(again) != 1 {
				t.Fatalf("retry: state=%v effects=%v", s.State, again)
			}
			if again[0].(CreateAppointment).Payload != first[0].(CreateAppointment).Payload {
				t.Error("retry changed the payload")
			}
			if got := again[0].(CreateAppointment).Payload.TruckPlate; got != "ABC1D23" {
				t.Errorf("truck plate = %q, want upper-cased", got)
			}
		})
	}
}

func TestAtMostOneSubmissionInFlight(t *testing.T) {
	s := NewEdit(existing(), 30)
	s, _ = s.Handle(Submit{})
	if s.CanSubmit() {
		t.Error("CanSubmit() = true while submitting")
	}
	for _, ev := range []Event{Submit{}, Retry{}, Edit{Field: FieldDate, Value: "2025-01-11"}} {
		var effects []Effect
		s, effects = s.Handle(ev)
		if len(effects) != 0 || s.State != Submitting {
			t.Errorf("%T during submit: state=%v effects=%v", ev, s.State, effects)
		}
	}
	if s.Current.Date != "2025-01-10" {
		t.Errorf("edit applied during submit: %s", s.Current.Date)
	}
}

func TestValidationGate(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  bool
	}{
		{name: "complete", draft: Draft{Date: "2025-01-10", Time: "09:00", PurchaseOrder: "PO", TruckPlate: "P", DriverName: "D"}, want: true},
		{name: "blank plate", draft: Draft{Date: "2025-01-10", Time: "09:00", PurchaseOrder: "PO", TruckPlate: "  ", DriverName: "D"}},
		{name: "no time", draft: Draft{Date: "2025-01-10", PurchaseOrder: "PO", TruckPlate: "P", DriverName: "D"}},
		{name: "no date", draft: Draft{Time: "09:00", PurchaseOrder: "PO", TruckPlate: "P", DriverName: "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Current: tt.draft, interval: 30}
			if got := s.CanSubmit(); got != tt.want {
				t.Errorf("CanSubmit() = %v, want %v", got, tt.want)
			}
			next, effects := s.Handle(Submit{})
			if !tt.want {
				if len(effects) != 0 || next.State != Idle {
					t.Errorf("gated submit produced state=%v effects=%v", next.State, effects)
				}
				if apperrors.KindOf(next.Err) != apperrors.KindValidation {
					t.Errorf("Err = %v, want validation", next.Err)
				}
			}
		})
	}
}

func TestOffGridTimesSnapToTheGrid(t *testing.T) {
	fill := func(s Session) Session {
		for _, e := range []Edit{
			{Field: FieldPurchaseOrder, Value: "PO-9"},
			{Field: FieldTruckPlate, Value: "ABC1D23"},
			{Field: FieldDriverName, Value: "Caio"},
		} {
			s, _ = s.Handle(e)
		}
		return s
	}

	s := fill(NewCreate(calendar.MustNew(2030, time.January, 10), calendar.MustTime(8, 15), 30, 0))
	if s.Current.Time != "08:30" {
		t.Errorf("create time = %q, want 08:30", s.Current.Time)
	}
	s, effects := s.Handle(Submit{})
	if len(effects) != 1 {
		t.Fatalf("submit effects = %v", effects)
	}
	p := effects[0].(CreateAppointment).Payload
	if p.Time.Wire() != "08:30" || p.TimeEnd.Wire() != "09:00" {
		t.Errorf("payload = %s-%s, want 08:30-09:00", p.Time.Wire(), p.TimeEnd.Wire())
	}

	e, _ := NewEdit(existing(), 30).Handle(Edit{Field: FieldTime, Value: "10:40"})
	if e.Current.Time != "10:30" {
		t.Errorf("edited time = %q, want 10:30", e.Current.Time)
	}

	// a draft set off the grid directly is refused
	raw := fill(NewCreate(calendar.MustNew(2030, time.January, 10), calendar.MustTime(8, 0), 30, 0))
	raw.Current.Time = "08:15"
	raw, effects = raw.Handle(Submit{})
	if len(effects) != 0 || raw.State != Idle {
		t.Fatalf("off-grid submit produced state=%v effects=%v", raw.State, effects)
	}
	if apperrors.KindOf(raw.Err) != apperrors.KindValidation {
		t.Errorf("Err = %v, want validation", raw.Err)
	}

	// an untouched off-grid original still saves
	legacy := existing()
	legacy.Time = calendar.MustTime(9, 15)
	l := fill(NewEdit(legacy, 30))
	if _, effects := l.Handle(Submit{}); len(effects) != 1 {
		t.Errorf("untouched off-grid appointment could not be saved: %v", effects)
	}
}

func TestSuccessClosesAndRefetches(t *testing.T) {
	s := NewEdit(existing(), 30)
	s, _ = s.Handle(Submit{})
	appt := existing()
	appt.PurchaseOrder = "PO-2"

	s, effects := s.Handle(Resolved{Appointment: appt})
	if !s.Done() || s.Result == nil || s.Result.PurchaseOrder != "PO-2" {
		t.Fatalf("after success: state=%v result=%v", s.State, s.Result)
	}
	if len(effects) != 2 {
		t.Fatalf("effects = %v", effects)
	}
	if _, ok := effects[0].(Refetch); !ok {
		t.Errorf("effects[0] = %T, want Refetch", effects[0])
	}
	if _, ok := effects[1].(Close); !ok {
		t.Errorf("effects[1] = %T, want Close", effects[1])
	}
}

// fakeSubmitter answers submissions from a script of errors.
type fakeSubmitter struct {
	errs     []error
	payloads []models.Payload
}

func (f *fakeSubmitter) next(p models.Payload) (models.Appointment, error) {
	f.payloads = append(f.payloads, p)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return models.Appointment{}, err
		}
	}
	return models.Appointment{ID: 7, Date: p.Date, Time: p.Time, Status: models.StatusRescheduled}, nil
}

func (f *fakeSubmitter) CreateAppointment(_ context.Context, p models.Payload) (models.Appointment, error) {
	return f.next(p)
}

func (f *fakeSubmitter) UpdateAppointment(_ context.Context, _ int64, p models.Payload) (models.Appointment, error) {
	return f.next(p)
}

func TestDrive(t *testing.T) {
	t.Run("local reason prompt", func(t *testing.T) {
		sub := &fakeSubmitter{}
		s := NewEdit(existing(), 30)
		s, _ = s.Handle(Edit{Field: FieldDate, Value: "2025-01-12"})

		asked := 0
		s = Drive(context.Background(), sub, s, Submit{}, func(Session) (string, bool) {
			asked++
			return "dock closed", true
		})
		if !s.Done() {
			t.Fatalf("State = %v, want success", s.State)
		}
		if asked != 1 || len(sub.payloads) != 1 || sub.payloads[0].RescheduleReason != "dock closed" {
			t.Errorf("asked=%d payloads=%+v", asked, sub.payloads)
		}
	})

	t.Run("server driven prompt", func(t *testing.T) {
		sub := &fakeSubmitter{errs: []error{&apperrors.ConflictError{Status: 400, RequiresReason: true}}}
		s := NewEdit(existing(), 30)
		s = Drive(context.Background(), sub, s, Submit{}, func(Session) (string, bool) {
			return "policy", true
		})
		if !s.Done() || len(sub.payloads) != 2 {
			t.Fatalf("state=%v payloads=%d", s.State, len(sub.payloads))
		}
		if sub.payloads[0].RescheduleReason != "" || sub.payloads[1].RescheduleReason != "policy" {
			t.Errorf("reasons = %q, %q", sub.payloads[0].RescheduleReason, sub.payloads[1].RescheduleReason)
		}
	})

	t.Run("declined prompt reverts", func(t *testing.T) {
		sub := &fakeSubmitter{}
		s := NewEdit(existing(), 30)
		s, _ = s.Handle(Edit{Field: FieldDate, Value: "2025-01-12"})
		s = Drive(context.Background(), sub, s, Submit{}, nil)
		if s.State != Idle || s.Current.Date != "2025-01-10" || len(sub.payloads) != 0 {
			t.Errorf("state=%v date=%s payloads=%d", s.State, s.Current.Date, len(sub.payloads))
		}
	})

	t.Run("failure stops", func(t *testing.T) {
		sub := &fakeSubmitter{errs: []error{&apperrors.ConflictError{Status: 409}}}
		s := Drive(context.Background(), sub, NewEdit(existing(), 30), Submit{}, nil)
		if s.State != Failed {
			t.Errorf("State = %v, want failed", s.State)
		}
	})
}
