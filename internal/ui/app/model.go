package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "routinectl/internal/modules/auth/dto"
	celebrationdto "routinectl/internal/modules/celebration/dto"
	historydto "routinectl/internal/modules/history/dto"
	routinedto "routinectl/internal/modules/routine/dto"
	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
	"routinectl/internal/ui/components"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
	authview "routinectl/internal/ui/views/auth"
	doneview "routinectl/internal/ui/views/done"
	editorview "routinectl/internal/ui/views/editor"
	historiesview "routinectl/internal/ui/views/histories"
	preflightview "routinectl/internal/ui/views/preflight"
	routinesview "routinectl/internal/ui/views/routines"
	runview "routinectl/internal/ui/views/run"
	settingsview "routinectl/internal/ui/views/settings"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type sessionPort interface {
	State() authdto.SessionOutput
	RefreshIdentity(ctx context.Context) (authdto.SessionOutput, error)
	Login(ctx context.Context, input authdto.LoginInput) error
	Register(ctx context.Context, input authdto.RegisterInput) error
	Logout(ctx context.Context) error
	FinishLogout()
	DeleteAccount(ctx context.Context, input authdto.DeleteAccountInput) error
	SaveSettings(ctx context.Context, patch authdto.SettingsPatch) (authdto.Settings, error)
	DismissTutorial(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, input authdto.ResetPasswordInput) (string, error)
	Invalidate()
}

type routinePort interface {
	List(ctx context.Context) ([]routinedto.RoutineOutput, error)
	Get(ctx context.Context, id int64) (routinedto.RoutineOutput, error)
	Create(ctx context.Context, input routinedto.RoutineInput) (routinedto.RoutineOutput, error)
	Update(ctx context.Context, id int64, input routinedto.RoutineInput) (routinedto.RoutineOutput, error)
	Delete(ctx context.Context, id int64) error
	MoveTask(tasks []string, from, to int) []string
	Start(ctx context.Context, input routinedto.StartInput) (routinedto.StartOutput, error)
}

type runPort interface {
	Open(ctx context.Context, historyID int64) (runin.Controller, error)
	Summary(ctx context.Context, historyID int64) (rundto.Summary, error)
	Discard(ctx context.Context, historyID int64) error
}

type historyPort interface {
	List(ctx context.Context, input historydto.ListInput) (historydto.PageOutput, error)
	Get(ctx context.Context, id int64) (historydto.HistoryOutput, error)
	Export(ctx context.Context, input historydto.ExportInput) (historydto.ExportOutput, error)
}

type celebrationPort interface {
	Celebrate(ctx context.Context, input celebrationdto.CelebrateInput) (celebrationdto.CelebrateOutput, error)
}

// Options tune the TUI. Zero values fall back to defaults.
type Options struct {
	ElapsedRefresh time.Duration
	ExportDir      string
	StartPath      string
	Now            func() time.Time
	// TerminalDark is used when dark mode follows the system.
	TerminalDark bool
}

// ─── tabs ────────────────────────────────────────────────────────────────────

var tabs = []struct {
	label string
	path  string
}{
	{"Routines", routes.Routines},
	{"History", routes.Histories},
	{"Settings", routes.Settings},
}

// ─── async messages ───────────────────────────────────────────────────────────

type identityMsg struct {
	out authdto.SessionOutput
	err error
}

type loggedOutMsg struct{ err error }

type accountDeletedMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Enter   key.Binding
	Back    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open / next")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Enter, k.Back},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns the current path, the session
// snapshot, the route guard, and the global overlays. Screens are sub-views.
type Model struct {
	session sessionPort
	opts    Options

	authView      authview.Model
	routinesView  routinesview.Model
	editorView    editorview.Model
	preflightView preflightview.Model
	runView       runview.Model
	doneView      doneview.Model
	historiesView historiesview.Model
	settingsView  settingsview.Model

	path   string
	screen routes.Screen
	param  int64
	sess   authdto.SessionOutput

	logout   *guard.Submit
	deletion *guard.Submit

	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	statusBad bool
	width     int
	height    int
}

func NewModel(
	session sessionPort,
	routine routinePort,
	run runPort,
	history historyPort,
	celebration celebrationPort,
	opts Options,
) Model {
	if opts.StartPath == "" {
		opts.StartPath = routes.Routines
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		session:       session,
		opts:          opts,
		authView:      authview.New(session),
		routinesView:  routinesview.New(routinesBridge{routines: routine, session: session}),
		editorView:    editorview.New(routine),
		preflightView: preflightview.New(routine),
		runView:       runview.New(run, opts.ElapsedRefresh, opts.Now),
		doneView:      doneview.New(run, celebration, opts.Now),
		historiesView: historiesview.New(history, opts.ExportDir),
		settingsView:  settingsview.New(session),
		path:          routes.Home,
		screen:        routes.ScreenHome,
		sess:          session.State(),
		logout:        &guard.Submit{},
		deletion:      &guard.Submit{},
		keys:          defaultKeys(),
		help:          help.New(),
		palette:       components.NewPalette(),
		status:        "ready",
	}
}

func (m Model) Path() string { return m.path }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), nav.Go(m.opts.StartPath))
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case nav.GoMsg:
		cmd := m.navigate(msg.Path)
		return m, cmd

	case nav.FlashMsg:
		m.status = msg.Text
		m.statusBad = msg.Failure
		return m, nil

	case nav.SessionChangedMsg:
		clock := m.applySession(m.session.State())
		cmd := m.enforce()
		return m, tea.Batch(clock, cmd)

	case identityMsg:
		clock := m.applySession(msg.out)
		if msg.err != nil && msg.out.Error != "" {
			m.status = msg.out.Error
			m.statusBad = true
		}
		cmd := m.enforce()
		return m, tea.Batch(clock, cmd)

	case loggedOutMsg:
		if errors.Is(msg.err, apperrors.ErrInFlight) {
			return m, nil
		}
		m.status = "signed out"
		m.statusBad = false
		cmd := m.navigate(routes.Home)
		return m, cmd

	case accountDeletedMsg:
		if errors.Is(msg.err, apperrors.ErrInFlight) {
			return m, nil
		}
		if msg.err != nil {
			m.status = "account not deleted: " + apperrors.MessageOf(msg.err)
			m.statusBad = true
			m.applySession(m.session.State())
			return m, nil
		}
		m.status = "account deleted"
		m.statusBad = false
		cmd := m.navigate(routes.Home)
		return m, cmd

	case runview.TickMsg:
		// Leaving the run screen ends the clock.
		if m.screen != routes.ScreenRun {
			return m, nil
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		m.statusBad = false
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Yield to the screen while it takes text input.
		if m.capturing() {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		case "tab", "shift+tab":
			if !m.sess.Authenticated() {
				break
			}
			step := 1
			if msg.String() == "shift+tab" {
				step = len(tabs) - 1
			}
			cmd := m.navigate(tabs[(m.activeTab()+step)%len(tabs)].path)
			return m, cmd
		case "esc":
			if m.screen == routes.ScreenHome && m.sess.Authenticated() {
				cmd := m.navigate(routes.Routines)
				return m, cmd
			}
		case "enter":
			if m.screen == routes.ScreenHome {
				target := routes.Login
				if m.sess.Authenticated() {
					target = routes.Routines
				}
				cmd := m.navigate(target)
				return m, cmd
			}
		}
	}

	return m.updateScreen(msg)
}

// updateScreen hands the message to the active screen. Async results for
// screens that are not active are still delivered so their state settles.
func (m Model) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	_, isKey := msg.(tea.KeyMsg)
	active := func(screens ...routes.Screen) bool {
		for _, s := range screens {
			if s == m.screen {
				return true
			}
		}
		return !isKey
	}
	var cmds []tea.Cmd
	if active(routes.ScreenLogin, routes.ScreenSignup, routes.ScreenForgotPassword, routes.ScreenResetPassword) {
		m.authView, cmd = m.authView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenRoutines) {
		m.routinesView, cmd = m.routinesView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenRoutineNew, routes.ScreenRoutineEdit) {
		m.editorView, cmd = m.editorView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenPreflight) {
		m.preflightView, cmd = m.preflightView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenRun) {
		m.runView, cmd = m.runView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenDone) {
		m.doneView, cmd = m.doneView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenHistories, routes.ScreenHistory) {
		m.historiesView, cmd = m.historiesView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if active(routes.ScreenSettings) {
		m.settingsView, cmd = m.settingsView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.activeView())
	}

	return theme.App.Padding(0).Render(lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar))
}

func (m Model) activeView() string {
	switch m.screen {
	case routes.ScreenHome:
		return m.renderHome()
	case routes.ScreenLogin, routes.ScreenSignup, routes.ScreenForgotPassword, routes.ScreenResetPassword:
		return m.authView.View()
	case routes.ScreenRoutines:
		return m.routinesView.View()
	case routes.ScreenRoutineNew, routes.ScreenRoutineEdit:
		return m.editorView.View()
	case routes.ScreenPreflight:
		return m.preflightView.View()
	case routes.ScreenRun:
		return m.runView.View()
	case routes.ScreenDone:
		return m.doneView.View()
	case routes.ScreenHistories, routes.ScreenHistory:
		return m.historiesView.View()
	case routes.ScreenSettings:
		return m.settingsView.View()
	}
	return theme.Muted.Render("Nothing here: " + m.path)
}

func (m Model) renderHome() string {
	body := theme.Title.Render("routinectl") + "\n" +
		"One task at a time.\n\n"
	if m.sess.Authenticated() {
		body += theme.Muted.Render("enter: your routines")
	} else {
		body += theme.Muted.Render("enter: log in  q: quit")
	}
	return lipgloss.Place(m.width, max(m.height-4, 1), lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderTabBar() string {
	bar := "routinectl"
	if m.sess.Authenticated() {
		active := m.activeTab()
		parts := make([]string, len(tabs))
		for i, tab := range tabs {
			if i == active && m.onTab() {
				parts[i] = theme.Hot.Render(" " + tab.label + " ")
			} else {
				parts[i] = theme.Muted.Render(" " + tab.label + " ")
			}
		}
		bar += "  " + strings.Join(parts, theme.Muted.Render(" │ "))
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.statusBad {
		left = theme.Bad.Render(left)
	}
	if m.sess.User != nil {
		left = theme.Hot.Render("● "+m.sess.User.Email) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	switch parts[0] {
	case "go":
		if len(parts) < 2 {
			m.status = "usage: go <path>"
			return m, nil
		}
		cmd = m.navigate(parts[1])
	case "routines":
		cmd = m.navigate(routes.Routines)
	case "new":
		cmd = m.navigate(routes.Routines + "/new")
	case "histories":
		cmd = m.navigate(routes.Histories)
	case "settings":
		cmd = m.navigate(routes.Settings)
	case "refresh":
		m.session.Invalidate()
		cmd = tea.Batch(m.refreshCmd(), m.navigate(m.path))
	case "export":
		if len(parts) < 2 {
			m.status = "usage: export <dir>"
			return m, nil
		}
		m.historiesView.SetExportDir(parts[1])
		m.status = "history exports go to " + parts[1]
	case "logout":
		if m.logout.Busy() {
			return m, nil
		}
		m.status = "signing out…"
		cmd = m.logoutCmd()
	case "delete-account":
		if len(parts) < 2 {
			m.status = "usage: delete-account <password>"
			return m, nil
		}
		if m.deletion.Busy() {
			return m, nil
		}
		m.status = "deleting account…"
		cmd = m.deleteAccountCmd(parts[1])
	default:
		m.status = "unknown command: " + parts[0]
	}
	m.statusBad = false
	return m, cmd
}

// ─── routing ─────────────────────────────────────────────────────────────────

// navigate moves to path after consulting the guard, then mounts the screen.
func (m *Model) navigate(path string) tea.Cmd {
	m.path = path
	m.screen, m.param = routes.Match(path)
	m.applySession(m.session.State())
	if cmd, redirected := m.guard(); redirected {
		return cmd
	}
	return m.mount()
}

// enforce re-runs the guard for the current path after a session change.
func (m *Model) enforce() tea.Cmd {
	cmd, _ := m.guard()
	return cmd
}

func (m *Model) guard() (tea.Cmd, bool) {
	decision := routes.Guard(m.path, m.sess.Status, m.sess.LoggingOut)
	if decision.FinishLogout {
		m.session.FinishLogout()
		m.applySession(m.session.State())
	}
	if decision.Redirect != "" {
		return m.navigate(decision.Redirect), true
	}
	return nil, false
}

func (m *Model) mount() tea.Cmd {
	var cmds []tea.Cmd
	if routes.Classify(m.path) == routes.AccessProtected {
		cmds = append(cmds, m.refreshCmd())
	}
	switch m.screen {
	case routes.ScreenLogin:
		cmds = append(cmds, m.authView.SetMode(authview.ModeLogin))
	case routes.ScreenSignup:
		cmds = append(cmds, m.authView.SetMode(authview.ModeSignup))
	case routes.ScreenForgotPassword:
		cmds = append(cmds, m.authView.SetMode(authview.ModeForgot))
	case routes.ScreenResetPassword:
		cmds = append(cmds, m.authView.SetMode(authview.ModeReset))
	case routes.ScreenRoutines:
		cmds = append(cmds, m.routinesView.Load())
	case routes.ScreenRoutineNew:
		cmds = append(cmds, m.editorView.Open(0))
	case routes.ScreenRoutineEdit:
		cmds = append(cmds, m.editorView.Open(m.param))
	case routes.ScreenPreflight:
		cmds = append(cmds, m.preflightView.Open(m.param))
	case routes.ScreenRun:
		cmds = append(cmds, m.runView.Open(m.param))
	case routes.ScreenDone:
		cmds = append(cmds, m.doneView.Open(m.param))
	case routes.ScreenHistories:
		cmds = append(cmds, m.historiesView.LoadPage(""))
	case routes.ScreenHistory:
		cmds = append(cmds, m.historiesView.OpenDetail(m.param))
	case routes.ScreenSettings:
		m.settingsView.Reset(m.sess.EffectiveSettings())
	}
	m.propagateSize()
	return tea.Batch(cmds...)
}

// applySession stores the snapshot and pushes what screens derive from it.
// The returned command restarts the run clock when elapsed time was just
// switched on.
func (m *Model) applySession(out authdto.SessionOutput) tea.Cmd {
	m.sess = out
	settings := out.EffectiveSettings()
	theme.Use(theme.Resolve(out.Authenticated(), settings.Theme, settings.DarkMode, m.opts.TerminalDark))
	clock := m.runView.SetDisplay(runview.Display{
		ShowRemaining: settings.ShowRemainingTasks,
		ShowElapsed:   settings.ShowElapsedTime,
		ShowEstimate:  settings.EnableTaskEstimatedTime,
	})
	m.doneView.SetCelebration(settings.ShowCelebration)
	m.routinesView.SetTutorial(out.User != nil && out.User.TutorialShouldShow)
	if m.screen != routes.ScreenRun {
		return nil
	}
	return clock
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) capturing() bool {
	switch m.screen {
	case routes.ScreenLogin, routes.ScreenSignup, routes.ScreenForgotPassword, routes.ScreenResetPassword:
		return m.authView.Capturing()
	case routes.ScreenRoutineNew, routes.ScreenRoutineEdit:
		return m.editorView.Capturing()
	case routes.ScreenRoutines:
		return m.routinesView.Capturing()
	}
	return false
}

func (m Model) activeTab() int {
	for i, tab := range tabs {
		if strings.HasPrefix(m.path, tab.path) {
			return i
		}
	}
	return 0
}

func (m Model) onTab() bool {
	for _, tab := range tabs {
		if strings.HasPrefix(m.path, tab.path) {
			return true
		}
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: max(m.height-3, 1)}
	m.authView, _ = m.authView.Update(sz)
	m.routinesView, _ = m.routinesView.Update(sz)
	m.editorView, _ = m.editorView.Update(sz)
	m.runView, _ = m.runView.Update(sz)
	m.historiesView, _ = m.historiesView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) refreshCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.RefreshIdentity(context.Background())
		return identityMsg{out: out, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	session, g := m.session, m.logout
	return func() tea.Msg {
		return loggedOutMsg{err: g.Run(func() error { return session.Logout(context.Background()) })}
	}
}

func (m Model) deleteAccountCmd(password string) tea.Cmd {
	session, g := m.session, m.deletion
	return func() tea.Msg {
		err := g.Run(func() error {
			return session.DeleteAccount(context.Background(), authdto.DeleteAccountInput{Password: password})
		})
		return accountDeletedMsg{err: err}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────

// routinesBridge joins the routine list with the tutorial flag that lives
// on the session.
type routinesBridge struct {
	routines routinePort
	session  sessionPort
}

func (b routinesBridge) List(ctx context.Context) ([]routinedto.RoutineOutput, error) {
	return b.routines.List(ctx)
}

func (b routinesBridge) Delete(ctx context.Context, id int64) error {
	return b.routines.Delete(ctx, id)
}

func (b routinesBridge) DismissTutorial(ctx context.Context) error {
	return b.session.DismissTutorial(ctx)
}
