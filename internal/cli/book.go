package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/reschedule"
)

// DraftFlags are the form fields settable from the command line.
type DraftFlags struct {
	PO     string `name:"po" help:"Purchase order number."`
	Plate  string `help:"Truck plate."`
	Driver string `help:"Driver name."`
}

func (f DraftFlags) edits() []reschedule.Event {
	var out []reschedule.Event
	if f.PO != "" {
		out = append(out, reschedule.Edit{Field: reschedule.FieldPurchaseOrder, Value: f.PO})
	}
	if f.Plate != "" {
		out = append(out, reschedule.Edit{Field: reschedule.FieldTruckPlate, Value: f.Plate})
	}
	if f.Driver != "" {
		out = append(out, reschedule.Edit{Field: reschedule.FieldDriverName, Value: f.Driver})
	}
	return out
}

// submit applies edits, submits and reports the settled session.
func (c *Context) submit(s reschedule.Session, edits []reschedule.Event, ask reschedule.ReasonFunc) error {
	for _, ev := range edits {
		s, _ = s.Handle(ev)
	}
	s = reschedule.Drive(c.Ctx, c.API, s, reschedule.Submit{}, ask)

	switch {
	case s.Done() && s.Result != nil:
		verb := "Booked"
		if s.Mode == reschedule.ModeEdit {
			verb = "Saved"
		}
		c.printf("✓ %s %s\n", verb, describe(*s.Result))
		return nil
	case s.State == reschedule.Idle && s.Mode == reschedule.ModeEdit && s.Err == nil:
		return fmt.Errorf("reschedule cancelled: a reason is required to move this appointment")
	case s.Err != nil:
		if s.Notice != "" {
			return fmt.Errorf("%s: %w", s.Notice, s.Err)
		}
		return s.Err
	}
	return fmt.Errorf("submission did not complete (%s)", s.State)
}

type BookCmd struct {
	Date string `arg:"" help:"Day of the booking (YYYY-MM-DD, DD/MM/YYYY, today, tomorrow)."`
	Time string `arg:"" help:"Slot start time (HH:MM)."`
	DraftFlags `embed:""`
}

func (c *BookCmd) Run(ctx *Context) error {
	d, err := parseDay(c.Date, ctx.today())
	if err != nil {
		return err
	}
	t, err := calendar.ParseTime(c.Time)
	if err != nil {
		return fmt.Errorf("invalid time %q (expected HH:MM)", c.Time)
	}

	s := reschedule.NewCreate(d, t, ctx.Config.Schedule.SlotIntervalMinutes, ctx.Config.API.PlantID)
	logger.Debug("Booking slot", "date", d.Wire(), "time", t.Wire())
	return ctx.submit(s, c.edits(), nil)
}

type RescheduleCmd struct {
	ID     int64  `arg:"" help:"Appointment id (see 'dockbook week')."`
	Week   string `help:"Any day of the week holding the appointment." default:"today"`
	Date   string `help:"New day."`
	Time   string `help:"New start time (HH:MM)."`
	Reason string `help:"Reschedule reason, asked for when the date or time changes and it is omitted."`
	DraftFlags `embed:""`
}

func (c *RescheduleCmd) Run(ctx *Context) error {
	today := ctx.today()
	weekDay, err := parseDay(c.Week, today)
	if err != nil {
		return err
	}
	a, err := ctx.findAppointment(weekDay, c.ID)
	if err != nil {
		return err
	}
	if !a.Editable() {
		return fmt.Errorf("appointment %s cannot be edited (%s)", appointmentLabel(a), a.Status.Label())
	}

	var edits []reschedule.Event
	if c.Date != "" {
		d, err := parseDay(c.Date, today)
		if err != nil {
			return err
		}
		edits = append(edits, reschedule.Edit{Field: reschedule.FieldDate, Value: d.Wire()})
	}
	if c.Time != "" {
		t, err := calendar.ParseTime(c.Time)
		if err != nil {
			return fmt.Errorf("invalid time %q (expected HH:MM)", c.Time)
		}
		edits = append(edits, reschedule.Edit{Field: reschedule.FieldTime, Value: t.Wire()})
	}
	edits = append(edits, c.edits()...)

	s := reschedule.NewEdit(a, ctx.Config.Schedule.SlotIntervalMinutes)
	return ctx.submit(s, edits, c.askReason)
}

func (c *RescheduleCmd) askReason(s reschedule.Session) (string, bool) {
	if strings.TrimSpace(c.Reason) != "" {
		reason := c.Reason
		// a rejected flag value must not be offered again
		c.Reason = ""
		return reason, true
	}

	var reason string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reschedule reason").
				Description(fmt.Sprintf("Moving from %s %s to %s %s", s.OriginalDate, s.OriginalTime, s.Current.Date, s.Current.Time)).
				Value(&reason),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", false
	}
	return reason, strings.TrimSpace(reason) != ""
}

type CancelCmd struct {
	ID   int64  `arg:"" help:"Appointment id (see 'dockbook week')."`
	Week string `help:"Any day of the week holding the appointment." default:"today"`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CancelCmd) Run(ctx *Context) error {
	weekDay, err := parseDay(c.Week, ctx.today())
	if err != nil {
		return err
	}
	a, err := ctx.findAppointment(weekDay, c.ID)
	if err != nil {
		return err
	}
	if !a.Editable() {
		return fmt.Errorf("appointment %s cannot be cancelled (%s)", appointmentLabel(a), a.Status.Label())
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Cancel %s on %s at %s?", appointmentLabel(a), a.Date.Display(), a.Time.Wire())).
					Affirmative("Yes").
					Negative("No").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.printf("Aborted\n")
			return nil
		}
	}

	if err := ctx.API.DeleteAppointment(ctx.Ctx, a.ID); err != nil {
		return fmt.Errorf("failed to cancel %s: %w", appointmentLabel(a), err)
	}
	ctx.printf("✓ Cancelled %s\n", appointmentLabel(a))
	return nil
}

// appointmentLabel is used in prompts where the number may be blank.
func appointmentLabel(a models.Appointment) string {
	if a.AppointmentNumber != "" {
		return a.AppointmentNumber
	}
	return fmt.Sprintf("#%d", a.ID)
}
