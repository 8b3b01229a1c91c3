package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "routinectl/internal/modules/auth/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Login(ctx context.Context, input authdto.LoginInput) error
	Register(ctx context.Context, input authdto.RegisterInput) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, input authdto.ResetPasswordInput) (string, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type SubmittedMsg struct {
	Mode   Mode
	Notice string
	Err    error
}

// ─── forms ───────────────────────────────────────────────────────────────────

type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
	ModeForgot
	ModeReset
)

type field struct {
	key    string
	label  string
	secret bool
}

var forms = map[Mode]struct {
	title  string
	fields []field
}{
	ModeLogin:  {"Log in", []field{{"email", "Email", false}, {"password", "Password", true}}},
	ModeSignup: {"Sign up", []field{{"email", "Email", false}, {"password", "Password", true}, {"confirmation", "Confirm password", true}}},
	ModeForgot: {"Forgot password", []field{{"email", "Email", false}}},
	ModeReset: {"Reset password", []field{
		{"token", "Reset token", false}, {"email", "Email", false},
		{"password", "New password", true}, {"confirmation", "Confirm password", true},
	}},
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	mode    Mode
	inputs  []textinput.Model
	focus   int
	submit  *guard.Submit
	pending bool
	spinner spinner.Model
	err     string
	notice  string
	width   int
	height  int
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{port: port, submit: &guard.Submit{}, spinner: sp}
	m.SetMode(ModeLogin)
	return m
}

// SetMode swaps the form and clears previous input.
func (m *Model) SetMode(mode Mode) tea.Cmd {
	m.mode = mode
	m.pending = false
	m.err = ""
	m.notice = ""
	m.focus = 0
	m.inputs = nil
	for _, f := range forms[mode].fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
		}
		m.inputs = append(m.inputs, ti)
	}
	return m.inputs[0].Focus()
}

func (m Model) Mode() Mode { return m.mode }

// Busy reports whether a submission is pending; enter is ignored meanwhile.
func (m Model) Busy() bool {
	return m.pending || m.submit.Busy()
}

// Capturing is always true: every key is text input on these forms.
func (m Model) Capturing() bool { return true }

func (m Model) Value(key string) string {
	return strings.TrimSpace(m.raw(key))
}

func (m Model) raw(key string) string {
	for i, f := range forms[m.mode].fields {
		if f.key == key {
			return m.inputs[i].Value()
		}
	}
	return ""
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SubmittedMsg:
		if msg.Mode != m.mode || errors.Is(msg.Err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.pending = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		switch msg.Mode {
		case ModeLogin, ModeSignup:
			return m, nav.Go(routes.Routines)
		case ModeReset:
			cmd := m.SetMode(ModeLogin)
			m.notice = msg.Notice
			return m, cmd
		default:
			m.notice = msg.Notice
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
		switch msg.String() {
		case "esc":
			return m, nav.Go(routes.Home)
		case "tab", "down":
			cmd := m.moveFocus(1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.moveFocus(-1)
			return m, cmd
		case "ctrl+n":
			return m, nav.Go(routes.Signup)
		case "ctrl+f":
			return m, nav.Go(routes.ForgotPassword)
		case "ctrl+r":
			return m, nav.Go(routes.ResetPassword)
		case "enter":
			if m.focus < len(m.inputs)-1 {
				cmd := m.moveFocus(1)
				return m, cmd
			}
			if m.Busy() {
				return m, nil
			}
			m.pending = true
			m.err = ""
			m.notice = ""
			return m, tea.Batch(m.submitCmd(), m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	form := forms[m.mode]
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(form.title) + "\n\n")
	for i, f := range form.fields {
		label := theme.Muted.Render(f.label)
		if i == m.focus {
			label = theme.Hot.Render(f.label)
		}
		sb.WriteString(label + "\n" + m.inputs[i].View() + "\n\n")
	}
	switch {
	case m.Busy():
		sb.WriteString(m.spinner.View() + " submitting…\n")
	case m.err != "":
		sb.WriteString(theme.Bad.Render(m.err) + "\n")
	case m.notice != "":
		sb.WriteString(theme.Good.Render(m.notice) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render(m.hint()))
	pane := theme.PaneActive.Width(max(min(m.width-4, 60), 30)).Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, pane)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) hint() string {
	switch m.mode {
	case ModeLogin:
		return "enter: submit  ctrl+n: sign up  ctrl+f: forgot password  esc: back"
	case ModeForgot:
		return "enter: send link  ctrl+r: have a token  esc: back"
	}
	return "enter: submit  esc: back"
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m Model) submitCmd() tea.Cmd {
	mode := m.mode
	email, token := m.Value("email"), m.Value("token")
	password, confirmation := m.raw("password"), m.raw("confirmation")
	port, submit := m.port, m.submit
	return func() tea.Msg {
		var notice string
		err := submit.Run(func() error {
			ctx := context.Background()
			var err error
			switch mode {
			case ModeLogin:
				err = port.Login(ctx, authdto.LoginInput{Email: email, Password: password})
			case ModeSignup:
				err = port.Register(ctx, authdto.RegisterInput{Email: email, Password: password, PasswordConfirmation: confirmation})
			case ModeForgot:
				notice, err = port.ForgotPassword(ctx, email)
			case ModeReset:
				notice, err = port.ResetPassword(ctx, authdto.ResetPasswordInput{
					Token: token, Email: email, Password: password, PasswordConfirmation: confirmation,
				})
			}
			return err
		})
		return SubmittedMsg{Mode: mode, Notice: notice, Err: err}
	}
}
