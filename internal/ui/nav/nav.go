// Package nav holds the messages views send to the root model.
package nav

import tea "github.com/charmbracelet/bubbletea"

// GoMsg asks the root model to navigate to Path. The route guard runs
// before the target screen mounts.
type GoMsg struct{ Path string }

func Go(path string) tea.Cmd {
	return func() tea.Msg { return GoMsg{Path: path} }
}

// FlashMsg is a transient status-bar notice.
type FlashMsg struct {
	Text    string
	Failure bool
}

func Flash(text string, failure bool) tea.Cmd {
	return func() tea.Msg { return FlashMsg{Text: text, Failure: failure} }
}

// SessionChangedMsg tells the root model to re-read the session after a
// view changed it.
type SessionChangedMsg struct{}

func SessionChanged() tea.Msg { return SessionChangedMsg{} }
