package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/maskedinput"
	"github.com/julianstephens/dockbook/internal/reschedule"
)

// form rows in focus order
const (
	rowDate = iota
	rowTime
	rowPurchaseOrder
	rowTruckPlate
	rowDriverName
	rowCount
)

var textFields = [...]reschedule.Field{
	reschedule.FieldPurchaseOrder,
	reschedule.FieldTruckPlate,
	reschedule.FieldDriverName,
}

// editForm is the booking/edit form. Masked inputs and text inputs report
// their values as reschedule.Edit events collected in changes.
type editForm struct {
	date  *maskedinput.Field
	time  *maskedinput.Field
	texts [3]textinput.Model
	focus int

	changes []reschedule.Edit

	ladder     []calendar.TimeOfDay
	pickerTime int
	pickerDate calendar.Date
	today      calendar.Date
}

func newEditForm(s reschedule.Session, interval int, ladder []calendar.TimeOfDay, today calendar.Date) *editForm {
	f := &editForm{ladder: ladder, today: today}
	f.date = maskedinput.NewField(maskedinput.DateSpec(), maskedinput.Options{
		Value:    s.Current.Date,
		MinDate:  today,
		OnChange: f.recorder(reschedule.FieldDate),
	})
	f.time = maskedinput.NewField(maskedinput.TimeSpec(interval), maskedinput.Options{
		Value:    s.Current.Time,
		OnChange: f.recorder(reschedule.FieldTime),
	})

	values := [3]string{s.Current.PurchaseOrder, s.Current.TruckPlate, s.Current.DriverName}
	placeholders := [3]string{"PO-0000", "ABC1D23", "Full name"}
	for i := range f.texts {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		ti.Width = 24
		ti.SetValue(values[i])
		f.texts[i] = ti
	}
	return f
}

func (f *editForm) recorder(field reschedule.Field) func(string) {
	return func(v string) {
		f.changes = append(f.changes, reschedule.Edit{Field: field, Value: v})
	}
}

// drain returns and forgets the edits collected since the last call.
func (f *editForm) drain() []reschedule.Edit {
	out := f.changes
	f.changes = nil
	return out
}

func (f *editForm) masked() *maskedinput.Field {
	switch f.focus {
	case rowDate:
		return f.date
	case rowTime:
		return f.time
	}
	return nil
}

func (f *editForm) pickerOpen() bool {
	m := f.masked()
	return m != nil && m.PickerOpen()
}

// blur runs focus-loss completion on the focused masked input.
func (f *editForm) blur() {
	if m := f.masked(); m != nil {
		m.Blur()
	}
}

func (f *editForm) setFocus(i int) {
	f.blur()
	f.focus = (i + rowCount) % rowCount
	for j := range f.texts {
		if j == f.focus-rowPurchaseOrder {
			f.texts[j].Focus()
		} else {
			f.texts[j].Blur()
		}
	}
}

// sync reloads the masked inputs from the session without reporting changes,
// used after the session restored its original date and time.
func (f *editForm) sync(s reschedule.Session) {
	_ = f.date.SetValue(s.Current.Date)
	_ = f.time.SetValue(s.Current.Time)
}

func (f *editForm) openPicker() {
	switch f.focus {
	case rowDate:
		f.pickerDate = f.today
		if d, err := calendar.Parse(f.date.Value()); err == nil {
			f.pickerDate = d
		}
		f.date.OpenPicker()
	case rowTime:
		f.pickerTime = 0
		for i, t := range f.ladder {
			if t.Wire() == f.time.Value() {
				f.pickerTime = i
			}
		}
		f.time.OpenPicker()
	}
}

func (f *editForm) updatePicker(msg tea.KeyMsg) error {
	m := f.masked()
	switch msg.String() {
	case "esc":
		m.ClosePicker()
	case "enter":
		if f.focus == rowDate {
			return m.PickerCommit(f.pickerDate.Wire())
		}
		if len(f.ladder) > 0 {
			return m.PickerCommit(f.ladder[f.pickerTime].Wire())
		}
		m.ClosePicker()
	case "left", "h":
		f.movePicker(-1, 0)
	case "right", "l":
		f.movePicker(1, 0)
	case "up", "k":
		f.movePicker(0, -1)
	case "down", "j":
		f.movePicker(0, 1)
	}
	return nil
}

func (f *editForm) movePicker(dx, dy int) {
	if f.focus == rowDate {
		next := f.pickerDate.AddDays(dx + 7*dy)
		if !next.Before(f.today) {
			f.pickerDate = next
		}
		return
	}
	f.pickerTime = min(max(f.pickerTime+dx+dy, 0), len(f.ladder)-1)
}

// update handles a key that the model did not consume. It returns the
// masked input error, if any, for display.
func (f *editForm) update(msg tea.KeyMsg, keys KeyMap) error {
	if f.pickerOpen() {
		return f.updatePicker(msg)
	}
	switch {
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return nil
	case key.Matches(msg, keys.Picker):
		f.openPicker()
		return nil
	}

	if m := f.masked(); m != nil {
		m.Key(msg.String())
		return m.Err()
	}

	i := f.focus - rowPurchaseOrder
	before := f.texts[i].Value()
	f.texts[i], _ = f.texts[i].Update(msg)
	if after := f.texts[i].Value(); after != before {
		f.changes = append(f.changes, reschedule.Edit{Field: textFields[i], Value: after})
	}
	return nil
}

var (
	labelStyle   = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("241"))
	focusedLabel = labelStyle.Foreground(lipgloss.Color("205")).Bold(true)
	pickerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func (f *editForm) View() string {
	labels := [rowCount]string{"Date", "Time", "Purchase order", "Truck plate", "Driver"}
	var rows []string
	for i, l := range labels {
		style := labelStyle
		if i == f.focus {
			style = focusedLabel
		}
		var value string
		switch i {
		case rowDate:
			value = maskedView(f.date)
		case rowTime:
			value = maskedView(f.time)
		default:
			value = f.texts[i-rowPurchaseOrder].View()
		}
		rows = append(rows, style.Render(l)+value)
	}
	if f.pickerOpen() {
		rows = append(rows, pickerStyle.Render(f.pickerView()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func maskedView(m *maskedinput.Field) string {
	s := m.Display()
	switch m.State() {
	case maskedinput.Complete:
		return successStyle.Render(s)
	case maskedinput.Invalid:
		return dangerStyle.Render(s)
	}
	return s
}

func (f *editForm) pickerView() string {
	if f.focus == rowDate {
		return fmt.Sprintf("◀ %s %s ▶\n←/→ day  ↑/↓ week  enter choose",
			f.pickerDate.WeekdayName(), f.pickerDate.Display())
	}
	if len(f.ladder) == 0 {
		return "no times available"
	}
	lo := max(f.pickerTime-2, 0)
	hi := min(lo+5, len(f.ladder))
	var b strings.Builder
	for i := lo; i < hi; i++ {
		if i == f.pickerTime {
			b.WriteString("> " + f.ladder[i].Wire())
		} else {
			b.WriteString("  " + f.ladder[i].Wire())
		}
		b.WriteByte('\n')
	}
	b.WriteString("↑/↓ move  enter choose")
	return b.String()
}
