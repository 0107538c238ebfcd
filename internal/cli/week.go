package cli

import (
	"fmt"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/slots"
	"github.com/julianstephens/dockbook/internal/tui/components/weekgrid"
)

type WeekCmd struct {
	Date string `arg:"" optional:"" help:"Any day of the week to show (YYYY-MM-DD, DD/MM/YYYY, today, tomorrow)."`
	JSON bool   `help:"Print the week's appointments as JSON."`
}

func (c *WeekCmd) Run(ctx *Context) error {
	today := ctx.today()
	day, err := parseDay(c.Date, today)
	if err != nil {
		return err
	}
	week := calendar.WeekOf(day)

	appts, err := ctx.API.GetAppointments(ctx.Ctx, week.Start())
	if err != nil {
		return fmt.Errorf("failed to load week of %s: %w", week.Start().Display(), err)
	}
	if c.JSON {
		if appts == nil {
			appts = []models.Appointment{}
		}
		return ctx.printJSON(appts)
	}

	g := slots.Build(week, appts, ctx.Config.BookingLadder(), today)
	ctx.printf("Week %s\n\n%s\n", week, weekgrid.Render(g, today))

	if len(g.Outside) > 0 {
		ctx.printf("\nOutside booking hours:\n")
		for _, a := range g.Outside {
			ctx.printf("  %s\n", describe(a))
		}
	}

	var own []models.Appointment
	for _, a := range appts {
		if a.IsOwn {
			own = append(own, a)
		}
	}
	if len(own) == 0 {
		ctx.printf("\nNo appointments of yours this week.\n")
		return nil
	}
	ctx.printf("\nYour appointments:\n")
	for _, a := range own {
		ctx.printf("  #%-4d %s\n", a.ID, describe(a))
	}
	return nil
}
