package routines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	routinedto "routinectl/internal/modules/routine/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context) ([]routinedto.RoutineOutput, error)
	Delete(ctx context.Context, id int64) error
	DismissTutorial(ctx context.Context) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Routines []routinedto.RoutineOutput
	Err      error
}

type DeletedMsg struct {
	ID  int64
	Err error
}

type TutorialDismissedMsg struct{ Err error }

// ─── list item ───────────────────────────────────────────────────────────────

type routineItem struct{ routine routinedto.RoutineOutput }

func (i routineItem) Title() string { return i.routine.Title }
func (i routineItem) Description() string {
	return fmt.Sprintf("%d tasks  %s", len(i.routine.Tasks), strings.Join(i.routine.Tasks, " → "))
}
func (i routineItem) FilterValue() string { return i.routine.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port         Port
	list         list.Model
	spinner      spinner.Model
	loading      bool
	err          string
	confirming   *routinedto.RoutineOutput
	deleteGuard  *guard.Submit
	deleting     bool
	showTutorial bool
	tutorial     *guard.Submit
	width        int
	height       int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Routines"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		port:        port,
		list:        l,
		spinner:     sp,
		deleteGuard: &guard.Submit{},
		tutorial:    &guard.Submit{},
	}
}

// SetTutorial shows or hides the first-run banner.
func (m *Model) SetTutorial(show bool) { m.showTutorial = show }

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Capturing reports whether keys belong to this view: while filtering or
// while a delete confirmation is open.
func (m Model) Capturing() bool {
	return m.Filtering() || m.confirming != nil
}

func (m Model) Selected() (routinedto.RoutineOutput, bool) {
	item, ok := m.list.SelectedItem().(routineItem)
	return item.routine, ok
}

// Load fetches the routine list.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	m.err = ""
	port := m.port
	return tea.Batch(func() tea.Msg {
		routines, err := port.List(context.Background())
		return LoadedMsg{Routines: routines, Err: err}
	}, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-m.chromeHeight())
		return m, nil

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "could not load routines: " + apperrors.MessageOf(msg.Err)
			return m, nil
		}
		items := make([]list.Item, len(msg.Routines))
		for i, r := range msg.Routines {
			items[i] = routineItem{routine: r}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case DeletedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.deleting = false
		if msg.Err != nil {
			// The dialog stays open so the delete can be retried.
			return m, nav.Flash("delete failed: "+apperrors.MessageOf(msg.Err), true)
		}
		m.confirming = nil
		for i, item := range m.list.Items() {
			if item.(routineItem).routine.ID == msg.ID {
				m.list.RemoveItem(i)
				break
			}
		}
		return m, nav.Flash("routine deleted", false)

	case TutorialDismissedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		if msg.Err != nil {
			return m, nav.Flash("could not dismiss tutorial: "+apperrors.MessageOf(msg.Err), true)
		}
		m.showTutorial = false
		return m, nav.SessionChanged

	case spinner.TickMsg:
		if !m.loading && !m.deleting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.confirming != nil {
			return m.updateConfirm(msg)
		}
		if m.Filtering() {
			break
		}
		switch msg.String() {
		case "enter", "s":
			if r, ok := m.Selected(); ok {
				return m, nav.Go(routes.PreflightPath(r.ID))
			}
			return m, nil
		case "n":
			return m, nav.Go(routes.Routines + "/new")
		case "e":
			if r, ok := m.Selected(); ok {
				return m, nav.Go(routes.RoutinePath(r.ID))
			}
			return m, nil
		case "d", "delete":
			if r, ok := m.Selected(); ok {
				m.confirming = &r
			}
			return m, nil
		case "t":
			if m.showTutorial && !m.tutorial.Busy() {
				cmd := m.dismissCmd()
				return m, cmd
			}
			return m, nil
		case "r":
			cmd := m.Load()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var parts []string
	if m.showTutorial {
		parts = append(parts, theme.Pane.Width(max(m.width-4, 20)).Render(
			theme.Hot.Render("Welcome!")+"\n"+
				"Pick a routine and press enter to check its order, then run it one task at a time.\n"+
				theme.Muted.Render("n: new routine  t: dismiss this tip")))
	}
	switch {
	case m.loading:
		parts = append(parts, m.spinner.View()+" loading routines…")
	case m.err != "":
		parts = append(parts, theme.Muted.Render(m.err+"  (r: retry)"))
	case len(m.list.Items()) == 0:
		parts = append(parts, theme.Muted.Render("No routines yet. Press n to create one."))
	default:
		parts = append(parts, m.list.View())
	}
	if m.confirming != nil {
		parts = append(parts, m.renderConfirm())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) chromeHeight() int {
	if m.showTutorial {
		return 6
	}
	return 1
}

func (m Model) updateConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if m.deleting || m.deleteGuard.Busy() {
			return m, nil
		}
		m.deleting = true
		return m, tea.Batch(m.deleteCmd(m.confirming.ID), m.spinner.Tick)
	case "n", "esc":
		if !m.deleting {
			m.confirming = nil
		}
	}
	return m, nil
}

func (m Model) renderConfirm() string {
	body := fmt.Sprintf("Delete %q?\n", m.confirming.Title)
	if m.deleting {
		body += m.spinner.View() + " deleting…"
	} else {
		body += theme.Muted.Render("y: delete  n: cancel")
	}
	return theme.PaneActive.Render(body)
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	port, g := m.port, m.deleteGuard
	return func() tea.Msg {
		err := g.Run(func() error { return port.Delete(context.Background(), id) })
		return DeletedMsg{ID: id, Err: err}
	}
}

func (m Model) dismissCmd() tea.Cmd {
	port, g := m.port, m.tutorial
	return func() tea.Msg {
		err := g.Run(func() error { return port.DismissTutorial(context.Background()) })
		return TutorialDismissedMsg{Err: err}
	}
}
