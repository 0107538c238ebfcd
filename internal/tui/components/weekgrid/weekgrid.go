package weekgrid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/slots"
)

const (
	TimeWidth = 7
	CellWidth = 13
	// HeaderLines is how many lines View prints above the first slot row.
	HeaderLines = 1
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(TimeWidth)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(CellWidth)

	todayHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("205"))

	cellStyle = lipgloss.NewStyle().Width(CellWidth)

	stateStyles = map[slots.State]lipgloss.Style{
		slots.Free:          cellStyle.Foreground(lipgloss.Color("42")),
		slots.OwnOccupied:   cellStyle.Foreground(lipgloss.Color("39")).Bold(true),
		slots.OtherOccupied: cellStyle.Foreground(lipgloss.Color("208")),
		slots.Past:          cellStyle.Foreground(lipgloss.Color("238")),
	}

	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

type Model struct {
	viewport viewport.Model
	grid     slots.Grid
	today    calendar.Date
	row, col int
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.grid.Times) == 0 {
		return "No slots configured."
	}
	return lipgloss.JoinVertical(lipgloss.Left, header(m.grid, m.today), m.viewport.View())
}

// SetSize sizes the scrolling body. height excludes the header line.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-HeaderLines, 1)
	m.Render()
}

func (m *Model) SetGrid(g slots.Grid, today calendar.Date, row, col int) {
	m.grid = g
	m.today = today
	m.row, m.col = row, col
	m.Render()
}

// Render redraws the body and scrolls the selected row into view.
func (m *Model) Render() {
	m.viewport.SetContent(body(m.grid, m.row, m.col))
	switch {
	case m.row < m.viewport.YOffset:
		m.viewport.SetYOffset(m.row)
	case m.row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.row - m.viewport.Height + 1)
	}
}

// CellAt maps a position relative to the top-left corner of View onto a grid
// row and column.
func (m Model) CellAt(x, y int) (row, col int, ok bool) {
	if x < TimeWidth || y < HeaderLines {
		return 0, 0, false
	}
	row = y - HeaderLines + m.viewport.YOffset
	col = (x - TimeWidth) / CellWidth
	if row >= len(m.grid.Rows) || col >= calendar.DaysPerWeek {
		return 0, 0, false
	}
	return row, col, true
}

// Render prints a grid without a selection, for non-interactive output.
func Render(g slots.Grid, today calendar.Date) string {
	return header(g, today) + "\n" + body(g, -1, -1)
}

func header(g slots.Grid, today calendar.Date) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(""))
	for _, d := range g.Days {
		label := fmt.Sprintf("%s %s", d.WeekdayName()[:3], d.Display()[:5])
		if d == today {
			b.WriteString(todayHeaderStyle.Render(label))
			continue
		}
		b.WriteString(headerStyle.Render(label))
	}
	return b.String()
}

func body(g slots.Grid, selRow, selCol int) string {
	var b strings.Builder
	for r, row := range g.Rows {
		b.WriteString(timeStyle.Render(g.Times[r].Wire()))
		for c, cell := range row {
			text := stateStyles[cell.State].Render(Label(cell))
			if r == selRow && c == selCol {
				text = selectedStyle.Render(text)
			}
			b.WriteString(text)
		}
		if r < len(g.Rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Label is the short text shown inside a cell.
func Label(c slots.Cell) string {
	switch {
	case c.Appointment != nil && c.Appointment.IsOwn:
		return truncate(c.Appointment.TruckPlate, CellWidth-1)
	case c.Appointment != nil:
		return "occupied"
	case c.State == slots.Past:
		return "·"
	}
	return "free"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
