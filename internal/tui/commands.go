package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dockbook/internal/dashboard"
	"github.com/julianstephens/dockbook/internal/reschedule"
)

type fetchedMsg dashboard.FetchResult

type submittedMsg struct {
	event reschedule.Event
}

type cancelledMsg struct {
	id  int64
	err error
}

func fetchCmd(ctx context.Context, svc Service, f dashboard.Fetch) tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg(dashboard.Load(ctx, svc, f))
	}
}

func submitCmd(ctx context.Context, svc Service, eff reschedule.Effect) tea.Cmd {
	return func() tea.Msg {
		ev := reschedule.Perform(ctx, svc, eff)
		if ev == nil {
			return nil
		}
		return submittedMsg{event: ev}
	}
}

func cancelCmd(ctx context.Context, svc Service, id int64) tea.Cmd {
	return func() tea.Msg {
		return cancelledMsg{id: id, err: svc.DeleteAppointment(ctx, id)}
	}
}
