package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
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
	Create(ctx context.Context, input routinedto.RoutineInput) (routinedto.RoutineOutput, error)
	Update(ctx context.Context, id int64, input routinedto.RoutineInput) (routinedto.RoutineOutput, error)
}

type LoadedMsg struct {
	Routine routinedto.RoutineOutput
	Err     error
}

type SavedMsg struct {
	Routine routinedto.RoutineOutput
	Err     error
}

// Model edits one routine. The task list is one task per line.
type Model struct {
	port    Port
	id      int64
	title   textinput.Model
	tasks   textarea.Model
	focus   int
	save    *guard.Submit
	saving  bool
	loading bool
	err     string
	width   int
	height  int
}

func New(port Port) Model {
	ti := textinput.New()
	ti.Placeholder = "Morning routine"
	ti.CharLimit = 120

	ta := textarea.New()
	ta.Placeholder = "one task per line, e.g. Stretch 10m"
	ta.ShowLineNumbers = true

	return Model{port: port, title: ti, tasks: ta, save: &guard.Submit{}}
}

// Open resets the form; id 0 starts a new routine, otherwise it is loaded.
func (m *Model) Open(id int64) tea.Cmd {
	m.id = id
	m.err = ""
	m.saving = false
	m.title.SetValue("")
	m.tasks.SetValue("")
	m.focus = 0
	m.tasks.Blur()
	focus := m.title.Focus()
	if id == 0 {
		m.loading = false
		return focus
	}
	m.loading = true
	port := m.port
	return tea.Batch(focus, func() tea.Msg {
		routine, err := port.Get(context.Background(), id)
		return LoadedMsg{Routine: routine, Err: err}
	})
}

func (m Model) Capturing() bool { return true }

// Input collects the form, dropping blank task lines.
func (m Model) Input() routinedto.RoutineInput {
	var tasks []string
	for _, line := range strings.Split(m.tasks.Value(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tasks = append(tasks, line)
		}
	}
	return routinedto.RoutineInput{Title: strings.TrimSpace(m.title.Value()), Tasks: tasks}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.title.Width = max(msg.Width-8, 10)
		m.tasks.SetWidth(max(msg.Width-4, 10))
		m.tasks.SetHeight(max(msg.Height-10, 3))
		return m, nil

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		m.title.SetValue(msg.Routine.Title)
		m.tasks.SetValue(strings.Join(msg.Routine.Tasks, "\n"))
		return m, nil

	case SavedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.saving = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nav.Flash("save failed", true)
		}
		return m, tea.Batch(nav.Flash("saved "+msg.Routine.Title, false), nav.Go(routes.Routines))

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, nav.Go(routes.Routines)
		case "tab", "shift+tab":
			cmd := m.toggleFocus()
			return m, cmd
		case "ctrl+s":
			if m.saving || m.loading || m.save.Busy() {
				return m, nil
			}
			m.saving = true
			m.err = ""
			return m, m.saveCmd()
		case "enter":
			if m.focus == 0 {
				cmd := m.toggleFocus()
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.tasks, cmd = m.tasks.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	heading := "New routine"
	if m.id != 0 {
		heading = "Edit routine"
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(heading) + "\n\n")
	sb.WriteString(theme.Muted.Render("Title") + "\n" + m.title.View() + "\n\n")
	sb.WriteString(theme.Muted.Render("Tasks") + "\n" + m.tasks.View() + "\n\n")
	switch {
	case m.loading:
		sb.WriteString(theme.Muted.Render("loading…") + "\n")
	case m.saving:
		sb.WriteString(theme.Muted.Render("saving…") + "\n")
	case m.err != "":
		sb.WriteString(theme.Bad.Render(m.err) + "\n")
	}
	sb.WriteString(theme.Muted.Render("tab: switch field  ctrl+s: save  esc: back"))
	return sb.String()
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == 0 {
		m.focus = 1
		m.title.Blur()
		return m.tasks.Focus()
	}
	m.focus = 0
	m.tasks.Blur()
	return m.title.Focus()
}

func (m Model) saveCmd() tea.Cmd {
	port, g, id, input := m.port, m.save, m.id, m.Input()
	return func() tea.Msg {
		var saved routinedto.RoutineOutput
		err := g.Run(func() error {
			var err error
			if id == 0 {
				saved, err = port.Create(context.Background(), input)
			} else {
				saved, err = port.Update(context.Background(), id, input)
			}
			return err
		})
		return SavedMsg{Routine: saved, Err: err}
	}
}
