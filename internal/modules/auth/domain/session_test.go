package domain

import "testing"

func TestAuthenticateRequiresCompleteSnapshot(t *testing.T) {
	t.Parallel()
	s := NewSession()
	settings := DefaultSettings()
	s.Authenticate(Snapshot{User: &User{ID: 1}})
	if s.Status != StatusUnauthenticated || !s.Consistent() {
		t.Fatalf("incomplete snapshot must sign out, got %+v", s)
	}
	s.Authenticate(Snapshot{User: &User{ID: 1}, Settings: &settings})
	if s.Status != StatusAuthenticated || !s.Consistent() {
		t.Fatalf("expected authenticated, got %+v", s)
	}
	s.Suspend()
	if s.Status != StatusLoading || s.User != nil || !s.Consistent() {
		t.Fatalf("suspend must drop identity, got %+v", s)
	}
	s.ReplaceSettings(settings)
	if s.Settings != nil {
		t.Fatalf("settings must not be set while not authenticated")
	}
}

func TestSettingsApplyPatch(t *testing.T) {
	t.Parallel()
	dark := ThemeDark
	on := true
	patch := SettingsPatch{Theme: &dark, ShowRemainingTasks: &on}
	if patch.Empty() || !(SettingsPatch{}).Empty() {
		t.Fatalf("unexpected Empty result")
	}
	got := DefaultSettings().Apply(patch)
	if got.Theme != ThemeDark || !got.ShowRemainingTasks || got.DarkMode != DarkModeSystem || got.ShowCelebration {
		t.Fatalf("unexpected settings after patch: %+v", got)
	}
}
