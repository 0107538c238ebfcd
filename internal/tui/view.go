package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dockbook/internal/constants"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/reschedule"
	"github.com/julianstephens/dockbook/internal/slots"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.State {
	case constants.StateEditing:
		content = m.viewEditor()
	case constants.StateReason, constants.StateConfirmCancel:
		content = panelStyle.Render(m.form.View())
	case constants.StateJump:
		content = m.viewJump()
	default:
		content = m.viewDetail()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTitle(),
		m.grid.View(),
		content,
		m.viewNotice(),
		m.help.View(m.keys),
	)
}

func (m Model) viewTitle() string {
	w := m.ctrl.Week()
	title := titleStyle.Render(fmt.Sprintf("Week %s – %s", w.Start().Display(), w.End().Display()))
	parts := []string{title}
	if m.ctrl.Loading() {
		parts = append(parts, m.spinner.View()+mutedStyle.Render("loading"))
	}
	if m.user.Email != "" {
		parts = append(parts, mutedStyle.Render(m.user.Email))
	}
	return strings.Join(parts, " ")
}

func (m Model) viewDetail() string {
	cell, ok := m.ctrl.Selected()
	if !ok {
		return ""
	}
	head := fmt.Sprintf("%s %s %s", cell.Date.WeekdayName(), cell.Date.Display(), cell.Time.Wire())
	lines := []string{head}
	switch a := cell.Appointment; {
	case a != nil && a.IsOwn:
		lines = append(lines,
			fmt.Sprintf("%s · %s · %s–%s", a.AppointmentNumber, a.Status.Label(), a.Time.Wire(), a.TimeEnd.Wire()),
			fmt.Sprintf("PO %s · plate %s · driver %s", a.PurchaseOrder, a.TruckPlate, a.DriverName),
		)
		if a.RescheduleReason != "" {
			lines = append(lines, mutedStyle.Render("Rescheduled: "+a.RescheduleReason))
		}
	case a != nil:
		lines = append(lines, mutedStyle.Render("Booked by another supplier"))
	case cell.State == slots.Past:
		lines = append(lines, mutedStyle.Render("In the past"))
	default:
		lines = append(lines, successStyle.Render("Free: press enter to book"))
	}
	if n := len(m.ctrl.Grid().Outside); n > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d appointment(s) outside the visible hours", n)))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewEditor() string {
	ed := m.ctrl.Editor()
	if ed == nil || m.edit == nil {
		return ""
	}
	title := "New appointment"
	if ed.Mode == reschedule.ModeEdit {
		title = "Edit appointment"
		if ed.Changed() {
			title += mutedStyle.Render(fmt.Sprintf(" (was %s %s)", ed.OriginalDate, ed.OriginalTime))
		}
	}

	footer := mutedStyle.Render("ctrl+s save · esc close · ctrl+p picker")
	switch ed.State {
	case reschedule.Submitting:
		footer = m.spinner.View() + "Saving…"
	case reschedule.Failed:
		footer = dangerStyle.Render(ed.Notice)
		if apperrors.KindOf(ed.Err) == apperrors.KindTransport {
			footer += mutedStyle.Render("  ctrl+r retry")
		}
	default:
		if ed.Notice != "" {
			footer = noticeStyle.Render(ed.Notice)
		}
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.edit.View(), "", footer))
}

func (m Model) viewJump() string {
	return panelStyle.Render("Go to date: " + m.jump.Display() + mutedStyle.Render("  enter go · esc back"))
}

func (m Model) viewNotice() string {
	switch {
	case m.notice != "":
		return noticeStyle.Render(m.notice)
	case m.ctrl.Err() != nil:
		return dangerStyle.Render("Could not load appointments: " + m.ctrl.Err().Error())
	}
	return ""
}
