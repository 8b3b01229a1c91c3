package histories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historydto "routinectl/internal/modules/history/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context, input historydto.ListInput) (historydto.PageOutput, error)
	Get(ctx context.Context, id int64) (historydto.HistoryOutput, error)
	Export(ctx context.Context, input historydto.ExportInput) (historydto.ExportOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type PageLoadedMsg struct {
	Page historydto.PageOutput
	Err  error
}

type DetailLoadedMsg struct {
	ID      int64
	History historydto.HistoryOutput
	Err     error
}

type ExportedMsg struct {
	Out historydto.ExportOutput
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type historyItem struct{ h historydto.HistoryOutput }

func (i historyItem) Title() string { return i.h.Title }
func (i historyItem) Description() string {
	parts := []string{i.h.Outcome}
	if i.h.StartedAt != nil {
		parts = append(parts, i.h.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	if i.h.DurationMinutes != nil {
		parts = append(parts, fmt.Sprintf("%d min", *i.h.DurationMinutes))
	}
	return strings.Join(parts, "  ")
}
func (i historyItem) FilterValue() string { return i.h.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type pane int

const (
	paneList pane = iota
	paneDetail
)

type Model struct {
	port      Port
	exportDir string
	pane      pane
	list      list.Model
	detail    viewport.Model
	spinner   spinner.Model
	page      historydto.PageOutput
	current   historydto.HistoryOutput
	detailID  int64
	loading   bool
	err       string
	export    *guard.Submit
	exporting bool
	width     int
	height    int
}

// New builds the history screen; exports are written under exportDir.
func New(port Port, exportDir string) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{port: port, exportDir: exportDir, list: l, detail: vp, spinner: sp, export: &guard.Submit{}}
}

// LoadPage fetches the first page, or the page behind path when set.
func (m *Model) LoadPage(path string) tea.Cmd {
	m.pane = paneList
	m.loading = true
	m.err = ""
	port := m.port
	return tea.Batch(func() tea.Msg {
		page, err := port.List(context.Background(), historydto.ListInput{Page: 1, Path: path})
		return PageLoadedMsg{Page: page, Err: err}
	}, m.spinner.Tick)
}

// OpenDetail shows one history.
func (m *Model) OpenDetail(id int64) tea.Cmd {
	m.pane = paneDetail
	m.detailID = id
	m.loading = true
	m.err = ""
	port := m.port
	return tea.Batch(func() tea.Msg {
		h, err := port.Get(context.Background(), id)
		return DetailLoadedMsg{ID: id, History: h, Err: err}
	}, m.spinner.Tick)
}

func (m Model) Page() historydto.PageOutput { return m.page }

func (m *Model) SetExportDir(dir string) { m.exportDir = dir }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		m.detail.Width = msg.Width - 2
		m.detail.Height = msg.Height - 3
		return m, nil

	case PageLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "could not load history: " + apperrors.MessageOf(msg.Err)
			return m, nil
		}
		m.page = msg.Page
		items := make([]list.Item, len(msg.Page.Items))
		for i, h := range msg.Page.Items {
			items[i] = historyItem{h: h}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case DetailLoadedMsg:
		if msg.ID != m.detailID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		m.current = msg.History
		m.detail.SetContent(renderDetail(msg.History))
		m.detail.GotoTop()
		return m, nil

	case ExportedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.exporting = false
		if msg.Err != nil {
			return m, nav.Flash("export failed: "+apperrors.MessageOf(msg.Err), true)
		}
		verb := "exported"
		if msg.Out.Updated {
			verb = "updated"
		}
		return m, nav.Flash(verb+" "+msg.Out.Path, false)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.pane == paneDetail {
			switch msg.String() {
			case "esc":
				return m, nav.Go(routes.Histories)
			case "x":
				cmd := m.exportSelected(m.current.ID)
				return m, cmd
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "right", "n":
			if m.page.Next != "" {
				cmd := m.LoadPage(m.page.Next)
				return m, cmd
			}
			return m, nil
		case "left", "p":
			if m.page.Prev != "" {
				cmd := m.LoadPage(m.page.Prev)
				return m, cmd
			}
			return m, nil
		case "enter":
			if item, ok := m.list.SelectedItem().(historyItem); ok {
				return m, nav.Go(routes.HistoryPath(item.h.ID))
			}
			return m, nil
		case "x":
			if item, ok := m.list.SelectedItem().(historyItem); ok {
				cmd := m.exportSelected(item.h.ID)
				return m, cmd
			}
			return m, nil
		case "r":
			cmd := m.LoadPage("")
			return m, cmd
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return m.spinner.View() + " loading…"
	}
	if m.err != "" {
		return theme.Muted.Render(m.err + "  (r: retry  esc: back)")
	}
	if m.pane == paneDetail {
		return lipgloss.JoinVertical(lipgloss.Left, m.detail.View(),
			theme.Muted.Render("x: export note  esc: back  ↑/↓: scroll"))
	}
	if len(m.page.Items) == 0 {
		return theme.Muted.Render("No runs yet.")
	}
	var hints []string
	if m.page.Prev != "" {
		hints = append(hints, "←/p: newer")
	}
	if m.page.Next != "" {
		hints = append(hints, "→/n: older")
	}
	hints = append(hints, "enter: details", "x: export")
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), theme.Muted.Render(strings.Join(hints, "  ")))
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) exportSelected(id int64) tea.Cmd {
	if id <= 0 || m.exporting || m.export.Busy() {
		return nil
	}
	m.exporting = true
	port, g, dir := m.port, m.export, m.exportDir
	return func() tea.Msg {
		var out historydto.ExportOutput
		err := g.Run(func() error {
			var err error
			out, err = port.Export(context.Background(), historydto.ExportInput{HistoryID: id, Dir: dir})
			return err
		})
		return ExportedMsg{Out: out, Err: err}
	}
}

func renderDetail(h historydto.HistoryOutput) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(h.Title) + "\n")
	outcome := theme.Good.Render(h.Outcome)
	if !h.Completed {
		outcome = theme.Hot.Render(h.Outcome)
	}
	sb.WriteString(outcome + "\n\n")
	if h.StartedAt != nil {
		sb.WriteString("started   " + h.StartedAt.Local().Format(time.DateTime) + "\n")
	}
	if h.FinishedAt != nil {
		sb.WriteString("finished  " + h.FinishedAt.Local().Format(time.DateTime) + "\n")
	}
	if h.DurationMinutes != nil {
		sb.WriteString(fmt.Sprintf("duration  %d min\n", *h.DurationMinutes))
	}
	sb.WriteString("\n")
	mark := "○"
	if h.Completed {
		mark = "✓"
	}
	for _, task := range h.Tasks {
		sb.WriteString("  " + mark + " " + task + "\n")
	}
	return sb.String()
}
