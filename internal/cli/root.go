package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/dockbook/internal/api"
	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/config"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/session"
)

type Context struct {
	Config     *config.Config
	ConfigPath string
	Session    session.Store
	API        *api.Client
	Out        io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
	// Ctx bounds every remote call; main cancels it on interrupt.
	Ctx context.Context
}

// NewContext opens the configured session store and builds the API client.
func NewContext(ctx context.Context, cfg *config.Config, configPath string) (*Context, error) {
	store, err := session.Open(cfg.Session)
	if err != nil {
		return nil, err
	}
	return &Context{
		Config:     cfg,
		ConfigPath: configPath,
		Session:    store,
		API:        api.New(cfg.API.BaseURL, cfg.Timeout(), store, cfg.API.PlantID),
		Out:        os.Stdout,
		Now:        time.Now,
		Ctx:        ctx,
	}, nil
}

func (c *Context) location() *time.Location {
	loc, err := c.Config.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Context) today() calendar.Date {
	return calendar.Today(c.Now(), c.location())
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.printf("%s\n", b)
	return nil
}

// parseDay accepts "today", "tomorrow", YYYY-MM-DD or DD/MM/YYYY.
func parseDay(s string, today calendar.Date) (calendar.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, DD/MM/YYYY or 'today')", s)
	}
	return d, nil
}

// findAppointment looks id up in the week containing day.
func (c *Context) findAppointment(day calendar.Date, id int64) (models.Appointment, error) {
	appts, err := c.API.GetAppointments(c.Ctx, calendar.WeekStart(day))
	if err != nil {
		return models.Appointment{}, err
	}
	for _, a := range appts {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Appointment{}, fmt.Errorf("appointment %d not found in the week of %s (use --week)", id, day.Display())
}

func describe(a models.Appointment) string {
	return fmt.Sprintf("%s  %s %s-%s  %-11s  PO %s  plate %s  driver %s",
		a.AppointmentNumber, a.Date.Display(), a.Time.Wire(), a.TimeEnd.Wire(),
		a.Status.Label(), a.PurchaseOrder, a.TruckPlate, a.DriverName)
}
