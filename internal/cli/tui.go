package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dockbook/internal/dashboard"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/session"
	"github.com/julianstephens/dockbook/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	user, err := session.Profile(ctx.Ctx, ctx.Session)
	if apperrors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("not logged in: run dockbook login")
	}
	if err != nil {
		return err
	}

	m := tui.NewModel(ctx.Ctx, tui.Options{
		Service: ctx.API,
		Dashboard: dashboard.Options{
			Ladder:   ctx.Config.BookingLadder(),
			Interval: ctx.Config.Schedule.SlotIntervalMinutes,
			PlantID:  ctx.Config.API.PlantID,
			Location: ctx.location(),
			Now:      ctx.Now,
		},
		PickerLadder: ctx.Config.PickerLadder(),
		User:         user,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
