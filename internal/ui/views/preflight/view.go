package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	routinedto "routinectl/internal/modules/routine/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

type Port interface {
	Get(ctx context.Context, id int64) (routinedto.RoutineOutput, error)
	MoveTask(tasks []string, from, to int) []string
	Start(ctx context.Context, input routinedto.StartInput) (routinedto.StartOutput, error)
}

type LoadedMsg struct {
	Routine routinedto.RoutineOutput
	Err     error
}

type StartedMsg struct {
	Out routinedto.StartOutput
	Err error
}

// Model lets the user reorder a routine's tasks before starting a run.
// Reordering is local until the run starts.
type Model struct {
	port     Port
	routine  routinedto.RoutineOutput
	tasks    []string
	cursor   int
	loading  bool
	starting bool
	start    *guard.Submit
	spinner  spinner.Model
	err      string
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{port: port, start: &guard.Submit{}, spinner: sp}
}

func (m *Model) Open(id int64) tea.Cmd {
	m.routine = routinedto.RoutineOutput{}
	m.tasks = nil
	m.cursor = 0
	m.err = ""
	m.starting = false
	m.loading = true
	port := m.port
	return tea.Batch(func() tea.Msg {
		routine, err := port.Get(context.Background(), id)
		return LoadedMsg{Routine: routine, Err: err}
	}, m.spinner.Tick)
}

func (m Model) Tasks() []string { return m.tasks }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		m.routine = msg.Routine
		m.tasks = append([]string(nil), msg.Routine.Tasks...)
		return m, nil

	case StartedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.starting = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		return m, nav.Go(routes.RunPath(msg.Out.HistoryID))

	case spinner.TickMsg:
		if !m.loading && !m.starting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading || m.starting {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case "shift+up", "K":
			if m.cursor > 0 {
				m.tasks = m.port.MoveTask(m.tasks, m.cursor, m.cursor-1)
				m.cursor--
			}
		case "shift+down", "J":
			if m.cursor < len(m.tasks)-1 {
				m.tasks = m.port.MoveTask(m.tasks, m.cursor, m.cursor+1)
				m.cursor++
			}
		case "enter", "s":
			if m.routine.ID == 0 || m.start.Busy() {
				return m, nil
			}
			m.starting = true
			m.err = ""
			return m, tea.Batch(m.startCmd(), m.spinner.Tick)
		case "esc":
			return m, nav.Go(routes.Routines)
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return m.spinner.View() + " loading routine…"
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Ready? "+m.routine.Title) + "\n\n")
	for i, task := range m.tasks {
		line := fmt.Sprintf("%2d. %s", i+1, task)
		if i == m.cursor {
			line = theme.Hot.Render("› " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	switch {
	case m.starting:
		sb.WriteString(m.spinner.View() + " starting…\n")
	case m.err != "":
		sb.WriteString(theme.Bad.Render(m.err) + "\n")
	}
	sb.WriteString(theme.Muted.Render("j/k: select  J/K: move task  enter: start  esc: back"))
	return sb.String()
}

func (m Model) startCmd() tea.Cmd {
	port, g := m.port, m.start
	input := routinedto.StartInput{
		RoutineID: m.routine.ID,
		Title:     m.routine.Title,
		Tasks:     append([]string(nil), m.tasks...),
	}
	return func() tea.Msg {
		var out routinedto.StartOutput
		err := g.Run(func() error {
			var err error
			out, err = port.Start(context.Background(), input)
			return err
		})
		return StartedMsg{Out: out, Err: err}
	}
}
