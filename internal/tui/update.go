package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dockbook/internal/api"
	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/dashboard"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/maskedinput"
	"github.com/julianstephens/dockbook/internal/reschedule"
	"github.com/julianstephens/dockbook/internal/slots"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchedMsg:
		if m.ctrl.ApplyFetch(dashboard.FetchResult(msg)) && apperrors.Is(msg.Err, api.ErrUnauthorized) {
			m.notice = "Session expired: run dockbook login"
		}
		m.syncGrid()
		return m, nil

	case submittedMsg:
		return m, m.dispatch(msg.event)

	case cancelledMsg:
		f, ok := m.ctrl.Cancelled(msg.id, msg.err)
		if !ok {
			m.notice = "Could not cancel: " + msg.err.Error()
			return m, nil
		}
		m.notice = "Appointment cancelled"
		return m, m.fetch(f)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.State {
	case constants.StateWeek:
		cmd = m.updateWeek(msg)
	case constants.StateEditing:
		cmd = m.updateEditing(msg)
	case constants.StateReason:
		cmd = m.updateReason(msg)
	case constants.StateConfirmCancel:
		cmd = m.updateConfirmCancel(msg)
	case constants.StateJump:
		cmd = m.updateJump(msg)
	}
	return m, cmd
}

func (m *Model) fetch(f dashboard.Fetch) tea.Cmd {
	m.syncGrid()
	return fetchCmd(m.ctx, m.svc, f)
}

// dispatch feeds one event to the open editor and turns the resulting step
// into commands and screen changes.
func (m *Model) dispatch(ev reschedule.Event) tea.Cmd {
	step := m.ctrl.Dispatch(ev)

	var cmds []tea.Cmd
	for _, eff := range step.Effects {
		cmds = append(cmds, submitCmd(m.ctx, m.svc, eff))
	}
	if step.Fetch != nil {
		cmds = append(cmds, m.fetch(*step.Fetch))
	}

	if step.Closed {
		m.edit = nil
		m.State = constants.StateWeek
		if r := m.ctrl.LastResult(); r != nil {
			m.notice = fmt.Sprintf("Saved %s: %s %s (%s)", r.AppointmentNumber, r.Date.Display(), r.Time.Wire(), r.Status.Label())
		}
		return tea.Batch(cmds...)
	}

	ed := m.ctrl.Editor()
	if ed == nil {
		return tea.Batch(cmds...)
	}
	switch ed.State {
	case reschedule.NeedsReason:
		if m.State != constants.StateReason {
			cmds = append(cmds, m.openReasonForm(ed.Notice))
		}
	case reschedule.Idle:
		if _, ok := ev.(reschedule.CancelReason); ok && m.edit != nil {
			m.edit.sync(*ed)
			m.State = constants.StateEditing
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateWeek(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		row, col, ok := m.grid.CellAt(msg.X, msg.Y-gridTop)
		if !ok {
			return nil
		}
		m.ctrl.SetCursor(row, col)
		m.syncGrid()
		if cell, ok := m.ctrl.Grid().Cell(row, col); ok {
			return m.activate(m.ctrl.Click(cell))
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			m.ctrl.MoveCursor(-1, 0)
			m.syncGrid()
		case key.Matches(msg, m.keys.Down):
			m.ctrl.MoveCursor(1, 0)
			m.syncGrid()
		case key.Matches(msg, m.keys.Left):
			m.ctrl.MoveCursor(0, -1)
			m.syncGrid()
		case key.Matches(msg, m.keys.Right):
			m.ctrl.MoveCursor(0, 1)
			m.syncGrid()
		case key.Matches(msg, m.keys.NextWeek):
			return m.fetch(m.ctrl.NextWeek())
		case key.Matches(msg, m.keys.PrevWeek):
			return m.fetch(m.ctrl.PrevWeek())
		case key.Matches(msg, m.keys.Today):
			return m.fetch(m.ctrl.GoToday())
		case key.Matches(msg, m.keys.Refresh):
			return m.fetch(m.ctrl.Refetch())
		case key.Matches(msg, m.keys.Jump):
			m.openJump()
		case key.Matches(msg, m.keys.Enter):
			return m.activate(m.ctrl.Activate())
		case key.Matches(msg, m.keys.Cancel):
			a, ok := m.ctrl.CancelTarget()
			if !ok {
				m.notice = "Only your scheduled appointments can be cancelled"
				return nil
			}
			return m.openConfirmCancel(a)
		}
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return cmd
}

func (m *Model) activate(s *reschedule.Session, ok bool) tea.Cmd {
	if !ok {
		if cell, found := m.ctrl.Selected(); found && cell.State == slots.OtherOccupied {
			m.notice = "That slot belongs to another supplier"
		}
		return nil
	}
	m.openEditor(s)
	return nil
}

func (m *Model) updateEditing(msg tea.Msg) tea.Cmd {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || m.edit == nil {
		return nil
	}

	switch {
	case key.Matches(kmsg, m.keys.Back) && !m.edit.pickerOpen():
		m.ctrl.CloseEditor()
		if m.ctrl.Editor() == nil {
			m.edit = nil
			m.State = constants.StateWeek
		}
		return nil
	case key.Matches(kmsg, m.keys.Submit):
		m.edit.blur()
		cmds := m.flushEdits()
		return tea.Batch(append(cmds, m.dispatch(reschedule.Submit{}))...)
	case key.Matches(kmsg, m.keys.Retry):
		return m.dispatch(reschedule.Retry{})
	}

	if err := m.edit.update(kmsg, m.keys); err != nil {
		m.notice = err.Error()
	}
	return tea.Batch(m.flushEdits()...)
}

func (m *Model) flushEdits() []tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range m.edit.drain() {
		cmds = append(cmds, m.dispatch(ev))
	}
	return cmds
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return cmd
}

func (m *Model) updateReason(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return m.dispatch(reschedule.CancelReason{})
	}

	cmds := []tea.Cmd{m.updateForm(msg)}
	switch m.form.State {
	case huh.StateCompleted:
		m.State = constants.StateEditing
		cmds = append(cmds, m.dispatch(reschedule.ProvideReason{Reason: m.reasonForm.Reason}))
	case huh.StateAborted:
		cmds = append(cmds, m.dispatch(reschedule.CancelReason{}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateConfirmCancel(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.State = constants.StateWeek
		return nil
	}

	cmds := []tea.Cmd{m.updateForm(msg)}
	switch m.form.State {
	case huh.StateCompleted:
		m.State = constants.StateWeek
		if m.confirmForm.Confirmed {
			cmds = append(cmds, cancelCmd(m.ctx, m.svc, m.cancelTarget.ID))
		}
	case huh.StateAborted:
		m.State = constants.StateWeek
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateJump(msg tea.Msg) tea.Cmd {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch kmsg.Type {
	case tea.KeyEsc:
		m.jump = nil
		m.State = constants.StateWeek
		return nil
	case tea.KeyEnter:
		m.jump.Blur()
		if m.jump.State() != maskedinput.Complete {
			m.notice = "Enter a full date as DD/MM/YYYY"
			return nil
		}
		d, err := calendar.Parse(m.jump.Value())
		if err != nil {
			m.notice = err.Error()
			return nil
		}
		m.jump = nil
		m.State = constants.StateWeek
		return m.fetch(m.ctrl.JumpTo(d))
	}
	m.jump.Key(kmsg.String())
	if err := m.jump.Err(); err != nil {
		m.notice = err.Error()
	} else {
		m.notice = ""
	}
	return nil
}
