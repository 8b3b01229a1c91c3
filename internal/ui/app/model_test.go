package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	authdto "routinectl/internal/modules/auth/dto"
	historydto "routinectl/internal/modules/history/dto"
	routinedto "routinectl/internal/modules/routine/dto"
	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	"routinectl/internal/ui/components"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
)

type fakeSession struct {
	state    authdto.SessionOutput
	finished int
	logouts  int
}

func signedIn() authdto.SessionOutput {
	settings := authdto.DefaultSettings()
	return authdto.SessionOutput{
		Status:   authdto.StatusAuthenticated,
		User:     &authdto.User{ID: 1, Email: "runner@example.com", TutorialShouldShow: true},
		Settings: &settings,
	}
}

func (f *fakeSession) State() authdto.SessionOutput { return f.state }
func (f *fakeSession) RefreshIdentity(context.Context) (authdto.SessionOutput, error) {
	return f.state, nil
}
func (f *fakeSession) Login(context.Context, authdto.LoginInput) error       { return nil }
func (f *fakeSession) Register(context.Context, authdto.RegisterInput) error { return nil }
func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	f.state = authdto.SessionOutput{Status: authdto.StatusUnauthenticated, LoggingOut: true}
	return nil
}
func (f *fakeSession) FinishLogout() {
	f.finished++
	f.state.LoggingOut = false
}
func (f *fakeSession) DeleteAccount(context.Context, authdto.DeleteAccountInput) error { return nil }
func (f *fakeSession) SaveSettings(_ context.Context, p authdto.SettingsPatch) (authdto.Settings, error) {
	return authdto.DefaultSettings().Apply(p), nil
}
func (f *fakeSession) DismissTutorial(context.Context) error                  { return nil }
func (f *fakeSession) ForgotPassword(context.Context, string) (string, error) { return "", nil }
func (f *fakeSession) ResetPassword(context.Context, authdto.ResetPasswordInput) (string, error) {
	return "", nil
}
func (f *fakeSession) Invalidate() {}

type fakeRoutines struct{}

func (fakeRoutines) List(context.Context) ([]routinedto.RoutineOutput, error) { return nil, nil }
func (fakeRoutines) Get(_ context.Context, id int64) (routinedto.RoutineOutput, error) {
	return routinedto.RoutineOutput{ID: id}, nil
}
func (fakeRoutines) Create(context.Context, routinedto.RoutineInput) (routinedto.RoutineOutput, error) {
	return routinedto.RoutineOutput{}, nil
}
func (fakeRoutines) Update(context.Context, int64, routinedto.RoutineInput) (routinedto.RoutineOutput, error) {
	return routinedto.RoutineOutput{}, nil
}
func (fakeRoutines) Delete(context.Context, int64) error        { return nil }
func (fakeRoutines) MoveTask(tasks []string, _, _ int) []string { return tasks }
func (fakeRoutines) Start(context.Context, routinedto.StartInput) (routinedto.StartOutput, error) {
	return routinedto.StartOutput{}, nil
}

type fakeRuns struct{}

func (fakeRuns) Open(context.Context, int64) (runin.Controller, error) { return nil, nil }
func (fakeRuns) Summary(context.Context, int64) (rundto.Summary, error) {
	return rundto.Summary{}, nil
}
func (fakeRuns) Discard(context.Context, int64) error { return nil }

type fakeHistories struct{}

func (fakeHistories) List(context.Context, historydto.ListInput) (historydto.PageOutput, error) {
	return historydto.PageOutput{}, nil
}
func (fakeHistories) Get(context.Context, int64) (historydto.HistoryOutput, error) {
	return historydto.HistoryOutput{}, nil
}
func (fakeHistories) Export(context.Context, historydto.ExportInput) (historydto.ExportOutput, error) {
	return historydto.ExportOutput{}, nil
}

// Tests here run serially: applying a session swaps the package-level theme.
func newModel(session *fakeSession) Model {
	return NewModel(session, fakeRoutines{}, fakeRuns{}, fakeHistories{}, nil, Options{})
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestSignedOutUserIsSentToLogin(t *testing.T) {
	session := &fakeSession{state: authdto.SessionOutput{Status: authdto.StatusLoading}}
	m := newModel(session)
	m, _ = update(m, nav.GoMsg{Path: routes.Histories})
	if m.Path() != routes.Histories {
		t.Fatalf("loading session must not redirect, at %s", m.Path())
	}

	session.state = authdto.SessionOutput{Status: authdto.StatusUnauthenticated}
	m, _ = update(m, identityMsg{out: session.state})
	if m.Path() != routes.Login {
		t.Fatalf("expected redirect to login, at %s", m.Path())
	}

	m, _ = update(m, nav.GoMsg{Path: routes.Signup})
	if m.Path() != routes.Signup {
		t.Fatalf("public paths stay reachable, at %s", m.Path())
	}
}

func TestSignedInUserStaysOnProtectedScreens(t *testing.T) {
	session := &fakeSession{state: signedIn()}
	m := newModel(session)
	m, _ = update(m, nav.GoMsg{Path: routes.PreflightPath(3)})
	if m.Path() != routes.PreflightPath(3) || m.screen != routes.ScreenPreflight || m.param != 3 {
		t.Fatalf("unexpected route %s %s %d", m.Path(), m.screen, m.param)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Path() != routes.Histories {
		t.Fatalf("tab from a routine screen must move to history, at %s", m.Path())
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Path() != routes.Settings {
		t.Fatalf("expected settings tab, at %s", m.Path())
	}
}

func TestLogoutLandsHomeWithoutLoginRedirect(t *testing.T) {
	session := &fakeSession{state: signedIn()}
	m := newModel(session)
	m, _ = update(m, nav.GoMsg{Path: routes.Settings})

	m, cmd := update(m, components.PaletteSubmitMsg{Input: "logout"})
	if cmd == nil {
		t.Fatalf("logout must run a command")
	}
	msg := cmd()
	if session.logouts != 1 {
		t.Fatalf("expected one logout call")
	}
	// The guard must not pull the user to /login while the logout navigates home.
	m, _ = update(m, identityMsg{out: session.State()})
	if m.Path() != routes.Settings {
		t.Fatalf("logging out must suppress the login redirect, at %s", m.Path())
	}
	m, _ = update(m, msg)
	if m.Path() != routes.Home || session.finished != 1 {
		t.Fatalf("expected home with logout finished, at %s finished=%d", m.Path(), session.finished)
	}
	if m.sess.LoggingOut {
		t.Fatalf("session snapshot must be refreshed after finishing logout")
	}
}

func TestPaletteUnknownCommand(t *testing.T) {
	m := newModel(&fakeSession{state: signedIn()})
	m, _ = update(m, components.PaletteSubmitMsg{Input: "fly away"})
	if m.status != "unknown command: fly" {
		t.Fatalf("unexpected status %q", m.status)
	}
}
