package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

type Port interface {
	Open(ctx context.Context, historyID int64) (runin.Controller, error)
}

// Display mirrors the user's run screen toggles.
type Display struct {
	ShowRemaining bool
	ShowElapsed   bool
	ShowEstimate  bool
}

// ─── messages ────────────────────────────────────────────────────────────────

type OpenedMsg struct {
	Gen        int
	Controller runin.Controller
	Err        error
}

// TickMsg refreshes the elapsed clock. Ticks from an earlier Open are dropped.
type TickMsg struct {
	Gen  int
	Time time.Time
}

type SignalMsg struct {
	Gen   int
	State rundto.FlowState
	Err   error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port       Port
	controller runin.Controller
	state      rundto.FlowState
	display    Display
	refresh    time.Duration
	now        func() time.Time
	current    time.Time
	gen        int
	ticking    bool
	pending    bool
	confirm    bool
	spinner    spinner.Model
	width      int
	height     int
}

// New builds the run screen. refresh is the elapsed clock interval; now
// defaults to time.Now.
func New(port Port, refresh time.Duration, now func() time.Time) Model {
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{port: port, refresh: refresh, now: now, spinner: sp}
}

// SetDisplay applies the toggles. Turning elapsed time on while a run is
// open restarts the clock; turning it off lets the running chain lapse.
func (m *Model) SetDisplay(d Display) tea.Cmd {
	m.display = d
	if !d.ShowElapsed || m.ticking || m.gen == 0 || m.state.Finished() {
		return nil
	}
	m.ticking = true
	m.current = m.now()
	return m.tick()
}

func (m Model) State() rundto.FlowState { return m.state }

// Open loads the run for historyID and starts the elapsed clock when it is
// shown.
func (m *Model) Open(historyID int64) tea.Cmd {
	m.gen++
	m.controller = nil
	m.state = rundto.FlowState{HistoryID: historyID, Phase: "loading"}
	m.pending = false
	m.confirm = false
	m.current = m.now()
	m.ticking = m.display.ShowElapsed
	gen, port := m.gen, m.port
	load := func() tea.Msg {
		controller, err := port.Open(context.Background(), historyID)
		return OpenedMsg{Gen: gen, Controller: controller, Err: err}
	}
	if !m.ticking {
		return load
	}
	return tea.Batch(load, m.tick())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case OpenedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.controller = msg.Controller
		if m.controller != nil {
			m.state = m.controller.State()
		}
		return m, nil

	case TickMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		if m.state.Finished() || !m.display.ShowElapsed {
			m.ticking = false
			return m, nil
		}
		m.current = msg.Time
		return m, m.tick()

	case SignalMsg:
		if msg.Gen != m.gen || errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.pending = false
		m.confirm = false
		m.state = msg.State
		switch msg.State.Phase {
		case "completed":
			return m, nav.Go(routes.DonePath(msg.State.HistoryID))
		case "aborted":
			return m, tea.Batch(nav.Flash("run aborted", false), nav.Go(routes.Routines))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.state.Running() || m.pending || m.controller == nil || m.controller.Busy() {
			if msg.String() == "esc" && !m.pending {
				return m, nav.Go(routes.Routines)
			}
			return m, nil
		}
		if m.confirm {
			switch msg.String() {
			case "y":
				m.pending = true
				return m, tea.Batch(m.signalCmd(m.controller.Abort), m.spinner.Tick)
			case "n", "esc":
				m.confirm = false
			}
			return m, nil
		}
		switch msg.String() {
		case "enter", " ", "d":
			m.pending = true
			return m, tea.Batch(m.signalCmd(m.controller.Advance), m.spinner.Tick)
		case "a":
			m.confirm = true
		}
	}
	return m, nil
}

func (m Model) View() string {
	s := m.state
	switch s.Phase {
	case "loading":
		return m.spinner.View() + " loading run…"
	case "error":
		return theme.Bad.Render(s.Error) + "\n\n" + theme.Muted.Render("esc: back to routines")
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render(s.Title) + "  " + theme.Muted.Render(fmt.Sprintf("task %d of %d", s.Index+1, s.Total)) + "\n\n")
	task := s.CurrentTask
	if !s.HasTask {
		task = "(no tasks)"
	}
	sb.WriteString(theme.PaneActive.Width(max(m.width-6, 20)).Render(theme.Hot.Render(task)) + "\n\n")

	var facts []string
	if m.display.ShowRemaining {
		facts = append(facts, fmt.Sprintf("%d remaining", s.RemainingCount))
	}
	if m.controller != nil {
		if elapsed := m.controller.ElapsedMinutes(m.current, m.display.ShowElapsed); elapsed != nil {
			facts = append(facts, fmt.Sprintf("%d min elapsed", *elapsed))
		}
		if m.display.ShowEstimate {
			if minutes, ok := m.controller.EstimatedMinutes(); ok {
				facts = append(facts, fmt.Sprintf("about %d min", minutes))
			}
		}
	}
	if len(facts) > 0 {
		sb.WriteString(theme.Muted.Render(strings.Join(facts, "  ·  ")) + "\n\n")
	}

	switch {
	case m.pending:
		sb.WriteString(m.spinner.View() + " saving…\n")
	case s.Error != "":
		sb.WriteString(theme.Bad.Render(s.Error) + "  " + theme.Muted.Render("(try again)") + "\n")
	}
	if m.confirm {
		sb.WriteString(theme.PaneActive.Render("Abort this run?\n"+theme.Muted.Render("y: abort  n: keep going")) + "\n")
	} else {
		label := "enter: done, next task"
		if s.Index == s.Total-1 || s.Total == 0 {
			label = "enter: finish routine"
		}
		sb.WriteString(theme.Muted.Render(label + "  a: abort"))
	}
	return lipgloss.NewStyle().Width(m.width).Render(sb.String())
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return TickMsg{Gen: gen, Time: t} })
}

func (m Model) signalCmd(signal func(context.Context) (rundto.FlowState, error)) tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		state, err := signal(context.Background())
		return SignalMsg{Gen: gen, State: state, Err: err}
	}
}
