package domain

type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

type User struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Plan                string  `json:"plan"`
	IsAdmin             bool    `json:"is_admin"`
	TutorialDismissedAt *string `json:"tutorial_dismissed_at"`
	TutorialShouldShow  bool    `json:"tutorial_should_show"`
}

const (
	ThemeLight = "light"
	ThemeSoft  = "soft"
	ThemeDark  = "dark"

	DarkModeSystem = "system"
	DarkModeOn     = "on"
	DarkModeOff    = "off"
)

type Settings struct {
	Theme                   string `json:"theme"`
	DarkMode                string `json:"dark_mode"`
	ShowRemainingTasks      bool   `json:"show_remaining_tasks"`
	ShowElapsedTime         bool   `json:"show_elapsed_time"`
	EnableTaskEstimatedTime bool   `json:"enable_task_estimated_time"`
	ShowCelebration         bool   `json:"show_celebration"`
}

func DefaultSettings() Settings {
	return Settings{Theme: ThemeLight, DarkMode: DarkModeSystem}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Theme                   *string `json:"theme,omitempty"`
	DarkMode                *string `json:"dark_mode,omitempty"`
	ShowRemainingTasks      *bool   `json:"show_remaining_tasks,omitempty"`
	ShowElapsedTime         *bool   `json:"show_elapsed_time,omitempty"`
	EnableTaskEstimatedTime *bool   `json:"enable_task_estimated_time,omitempty"`
	ShowCelebration         *bool   `json:"show_celebration,omitempty"`
}

func (p SettingsPatch) Empty() bool {
	return p.Theme == nil && p.DarkMode == nil && p.ShowRemainingTasks == nil &&
		p.ShowElapsedTime == nil && p.EnableTaskEstimatedTime == nil && p.ShowCelebration == nil
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.DarkMode != nil {
		s.DarkMode = *p.DarkMode
	}
	if p.ShowRemainingTasks != nil {
		s.ShowRemainingTasks = *p.ShowRemainingTasks
	}
	if p.ShowElapsedTime != nil {
		s.ShowElapsedTime = *p.ShowElapsedTime
	}
	if p.EnableTaskEstimatedTime != nil {
		s.EnableTaskEstimatedTime = *p.EnableTaskEstimatedTime
	}
	if p.ShowCelebration != nil {
		s.ShowCelebration = *p.ShowCelebration
	}
	return s
}

// Snapshot is the identity pair returned by /api/me.
type Snapshot struct {
	User     *User     `json:"user"`
	Settings *Settings `json:"settings"`
}

func (s Snapshot) Complete() bool {
	return s.User != nil && s.Settings != nil
}

// Session is the client view of authentication. User and Settings are set
// if and only if Status is StatusAuthenticated; the mutators below are the
// only way to change them.
type Session struct {
	Status     Status
	User       *User
	Settings   *Settings
	Error      string
	LoggingOut bool
}

func NewSession() Session {
	return Session{Status: StatusLoading}
}

// Authenticate adopts a complete snapshot. An incomplete one signs out.
func (s *Session) Authenticate(snap Snapshot) {
	if !snap.Complete() {
		s.SignOut()
		return
	}
	user := *snap.User
	settings := *snap.Settings
	s.Status = StatusAuthenticated
	s.User = &user
	s.Settings = &settings
}

func (s *Session) SignOut() {
	s.Status = StatusUnauthenticated
	s.User = nil
	s.Settings = nil
}

// Suspend drops identity while an operation that ends the session runs.
func (s *Session) Suspend() {
	s.Status = StatusLoading
	s.User = nil
	s.Settings = nil
}

// ReplaceSettings is a no-op unless the session is authenticated.
func (s *Session) ReplaceSettings(settings Settings) {
	if s.Status != StatusAuthenticated {
		return
	}
	s.Settings = &settings
}

func (s Session) Consistent() bool {
	hasIdentity := s.User != nil && s.Settings != nil
	if s.Status == StatusAuthenticated {
		return hasIdentity
	}
	return s.User == nil && s.Settings == nil
}
