package dto

import "routinectl/internal/modules/auth/domain"

type LoginInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
}

type ResetPasswordInput struct {
	Token                string
	Email                string
	Password             string
	PasswordConfirmation string
}

type DeleteAccountInput struct {
	Password string
}

type SessionOutput struct {
	Status     domain.Status
	User       *domain.User
	Settings   *domain.Settings
	Error      string
	LoggingOut bool
}

func (s SessionOutput) Authenticated() bool {
	return s.Status == domain.StatusAuthenticated
}

// EffectiveSettings returns the user's settings, or defaults when signed out.
func (s SessionOutput) EffectiveSettings() domain.Settings {
	if s.Settings == nil {
		return domain.DefaultSettings()
	}
	return *s.Settings
}

// Choices offered by settings screens, in display order.
var (
	ThemeChoices    = []string{domain.ThemeLight, domain.ThemeSoft, domain.ThemeDark}
	DarkModeChoices = []string{domain.DarkModeSystem, domain.DarkModeOn, domain.DarkModeOff}
)

type (
	Status        = domain.Status
	User          = domain.User
	Settings      = domain.Settings
	SettingsPatch = domain.SettingsPatch
)

const (
	StatusLoading         = domain.StatusLoading
	StatusAuthenticated   = domain.StatusAuthenticated
	StatusUnauthenticated = domain.StatusUnauthenticated

	ThemeLight = domain.ThemeLight
	ThemeSoft  = domain.ThemeSoft
	ThemeDark  = domain.ThemeDark
)

func DefaultSettings() Settings { return domain.DefaultSettings() }
