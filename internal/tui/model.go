package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/dashboard"
	"github.com/julianstephens/dockbook/internal/maskedinput"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/reschedule"
	"github.com/julianstephens/dockbook/internal/tui/components/weekgrid"
)

// Service is everything the dashboard needs from the appointment service.
type Service interface {
	dashboard.Fetcher
	reschedule.Submitter
	DeleteAppointment(ctx context.Context, id int64) error
}

type Options struct {
	Service   Service
	Dashboard dashboard.Options
	// PickerLadder lists the times offered by the time picker.
	PickerLadder []calendar.TimeOfDay
	User         models.User
}

type ReasonFormModel struct {
	Reason string
}

type ConfirmFormModel struct {
	Confirmed bool
}

// lines above the grid: the title bar
const gridTop = 1

type Model struct {
	ctx     context.Context
	svc     Service
	ctrl    *dashboard.Controller
	initial dashboard.Fetch

	State   constants.SessionState
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	grid    weekgrid.Model

	edit         *editForm
	form         *huh.Form
	reasonForm   *ReasonFormModel
	confirmForm  *ConfirmFormModel
	cancelTarget models.Appointment
	jump         *maskedinput.Field

	interval int
	picker   []calendar.TimeOfDay
	user     models.User

	notice   string
	quitting bool
	width    int
	height   int
}

func NewModel(ctx context.Context, opts Options) Model {
	if opts.Dashboard.Interval <= 0 {
		opts.Dashboard.Interval = constants.DefaultSlotIntervalMin
	}
	ctrl := dashboard.New(opts.Dashboard)
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		svc:      opts.Service,
		ctrl:     ctrl,
		initial:  ctrl.Refetch(),
		State:    constants.StateWeek,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		grid:     weekgrid.New(120, 20),
		interval: opts.Dashboard.Interval,
		picker:   opts.PickerLadder,
		user:     opts.User,
	}
	if len(m.picker) == 0 {
		m.picker = opts.Dashboard.Ladder
	}
	m.syncGrid()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchCmd(m.ctx, m.svc, m.initial))
}

// Controller exposes the dashboard state, mostly for tests.
func (m Model) Controller() *dashboard.Controller { return m.ctrl }

func (m *Model) syncGrid() {
	row, col := m.ctrl.Cursor()
	m.grid.SetGrid(m.ctrl.Grid(), m.ctrl.Today(), row, col)
}

func (m *Model) resize() {
	// title, detail panel, notice and help
	chrome := gridTop + 8
	m.grid.SetSize(m.width, max(m.height-chrome, 4))
	m.help.Width = m.width
}

func (m *Model) openEditor(s *reschedule.Session) {
	m.edit = newEditForm(*s, m.interval, m.picker, m.ctrl.Today())
	m.State = constants.StateEditing
	m.notice = ""
}

func (m *Model) openReasonForm(prompt string) tea.Cmd {
	m.reasonForm = &ReasonFormModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reschedule reason").
				Description(prompt).
				Value(&m.reasonForm.Reason),
		),
	).WithTheme(huh.ThemeDracula())
	m.State = constants.StateReason
	return m.form.Init()
}

func (m *Model) openConfirmCancel(a models.Appointment) tea.Cmd {
	m.cancelTarget = a
	m.confirmForm = &ConfirmFormModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Cancel appointment " + a.AppointmentNumber + "?").
				Description(a.Date.Display() + " " + a.Time.Wire() + " · " + a.TruckPlate).
				Affirmative("Cancel it").
				Negative("Keep").
				Value(&m.confirmForm.Confirmed),
		),
	).WithTheme(huh.ThemeDracula())
	m.State = constants.StateConfirmCancel
	return m.form.Init()
}

func (m *Model) openJump() {
	m.jump = maskedinput.NewField(maskedinput.DateSpec(), maskedinput.Options{})
	m.State = constants.StateJump
	m.notice = ""
}
