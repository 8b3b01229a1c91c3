package settings

import (
	"context"
	"errors"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	authdto "routinectl/internal/modules/auth/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/theme"
)

type Port interface {
	SaveSettings(ctx context.Context, patch authdto.SettingsPatch) (authdto.Settings, error)
}

type SavedMsg struct {
	Settings authdto.Settings
	Err      error
}

type row int

const (
	rowTheme row = iota
	rowDarkMode
	rowRemaining
	rowElapsed
	rowEstimate
	rowCelebration
	rowCount
)

var rowLabels = [rowCount]string{
	"Theme", "Dark mode", "Show remaining tasks", "Show elapsed time", "Show estimated time", "Show celebration",
}

// Model edits a local copy of the settings; nothing is sent until save.
type Model struct {
	port   Port
	saved  authdto.Settings
	local  authdto.Settings
	cursor row
	save   *guard.Submit
	saving bool
	err    string
}

func New(port Port) Model {
	defaults := authdto.DefaultSettings()
	return Model{port: port, saved: defaults, local: defaults, save: &guard.Submit{}}
}

// Reset loads the stored settings, discarding local edits.
func (m *Model) Reset(s authdto.Settings) {
	m.saved = s
	m.local = s
	m.err = ""
}

func (m Model) Local() authdto.Settings { return m.local }

func (m Model) Dirty() bool { return m.local != m.saved }

// Patch holds only the fields that differ from the stored settings.
func (m Model) Patch() authdto.SettingsPatch {
	var p authdto.SettingsPatch
	l, s := m.local, m.saved
	if l.Theme != s.Theme {
		p.Theme = &l.Theme
	}
	if l.DarkMode != s.DarkMode {
		p.DarkMode = &l.DarkMode
	}
	if l.ShowRemainingTasks != s.ShowRemainingTasks {
		p.ShowRemainingTasks = &l.ShowRemainingTasks
	}
	if l.ShowElapsedTime != s.ShowElapsedTime {
		p.ShowElapsedTime = &l.ShowElapsedTime
	}
	if l.EnableTaskEstimatedTime != s.EnableTaskEstimatedTime {
		p.EnableTaskEstimatedTime = &l.EnableTaskEstimatedTime
	}
	if l.ShowCelebration != s.ShowCelebration {
		p.ShowCelebration = &l.ShowCelebration
	}
	return p
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SavedMsg:
		if errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.saving = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nav.Flash("settings not saved", true)
		}
		m.Reset(msg.Settings)
		return m, tea.Batch(nav.SessionChanged, nav.Flash("settings saved", false))

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			m.cursor = (m.cursor + rowCount - 1) % rowCount
		case "down", "j":
			m.cursor = (m.cursor + 1) % rowCount
		case " ", "enter", "right", "l":
			m.change(1)
		case "left", "h":
			m.change(-1)
		case "s", "ctrl+s":
			if !m.Dirty() || m.save.Busy() {
				return m, nil
			}
			m.saving = true
			m.err = ""
			return m, m.saveCmd()
		case "esc":
			m.local = m.saved
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Settings") + "\n\n")
	for r := row(0); r < rowCount; r++ {
		line := padRight(rowLabels[r], 22) + m.value(r)
		if r == m.cursor {
			line = theme.Hot.Render("› " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	switch {
	case m.saving:
		sb.WriteString(theme.Muted.Render("saving…") + "\n")
	case m.err != "":
		sb.WriteString(theme.Bad.Render(m.err) + "\n")
	case m.Dirty():
		sb.WriteString(theme.Hot.Render("unsaved changes") + "\n")
	}
	sb.WriteString(theme.Muted.Render("j/k: select  space: change  s: save  esc: revert"))
	return sb.String()
}

func (m *Model) change(delta int) {
	switch m.cursor {
	case rowTheme:
		m.local.Theme = cycle(authdto.ThemeChoices, m.local.Theme, delta)
	case rowDarkMode:
		m.local.DarkMode = cycle(authdto.DarkModeChoices, m.local.DarkMode, delta)
	case rowRemaining:
		m.local.ShowRemainingTasks = !m.local.ShowRemainingTasks
	case rowElapsed:
		m.local.ShowElapsedTime = !m.local.ShowElapsedTime
	case rowEstimate:
		m.local.EnableTaskEstimatedTime = !m.local.EnableTaskEstimatedTime
	case rowCelebration:
		m.local.ShowCelebration = !m.local.ShowCelebration
	}
}

func (m Model) value(r row) string {
	switch r {
	case rowTheme:
		return m.local.Theme
	case rowDarkMode:
		return m.local.DarkMode
	case rowRemaining:
		return onOff(m.local.ShowRemainingTasks)
	case rowElapsed:
		return onOff(m.local.ShowElapsedTime)
	case rowEstimate:
		return onOff(m.local.EnableTaskEstimatedTime)
	case rowCelebration:
		return onOff(m.local.ShowCelebration)
	}
	return ""
}

func (m Model) saveCmd() tea.Cmd {
	port, g, patch := m.port, m.save, m.Patch()
	return func() tea.Msg {
		var saved authdto.Settings
		err := g.Run(func() error {
			var err error
			saved, err = port.SaveSettings(context.Background(), patch)
			return err
		})
		return SavedMsg{Settings: saved, Err: err}
	}
}

func cycle(choices []string, current string, delta int) string {
	i := slices.Index(choices, current)
	if i < 0 {
		return choices[0]
	}
	return choices[(i+delta+len(choices))%len(choices)]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
