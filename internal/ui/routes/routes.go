package routes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	authdto "routinectl/internal/modules/auth/dto"
)

const (
	Home           = "/"
	Login          = "/login"
	Signup         = "/signup"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	Routines       = "/routines"
	Run            = "/run"
	Histories      = "/histories"
	Settings       = "/settings"
)

// PublicPaths are matched exactly; ProtectedPrefixes by prefix.
var (
	PublicPaths       = []string{Home, Login, Signup, ForgotPassword, ResetPassword}
	ProtectedPrefixes = []string{Routines, Run, Histories, Settings}
)

type Access int

const (
	AccessOpen Access = iota
	AccessPublic
	AccessProtected
)

func Classify(path string) Access {
	if slices.Contains(PublicPaths, path) {
		return AccessPublic
	}
	for _, prefix := range ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return AccessProtected
		}
	}
	return AccessOpen
}

type Decision struct {
	Redirect     string
	FinishLogout bool
}

func (d Decision) Stay() bool {
	return d.Redirect == "" && !d.FinishLogout
}

// Guard is the only place that decides whether the current path may be
// shown for a session status. Protected paths send signed-out users to
// the login screen unless a logout is navigating home; landing on Home
// ends that logout.
func Guard(path string, status authdto.Status, loggingOut bool) Decision {
	if loggingOut {
		return Decision{FinishLogout: path == Home}
	}
	if status == authdto.StatusUnauthenticated && Classify(path) == AccessProtected {
		return Decision{Redirect: Login}
	}
	return Decision{}
}

type Screen string

const (
	ScreenHome           Screen = "home"
	ScreenLogin          Screen = "login"
	ScreenSignup         Screen = "signup"
	ScreenForgotPassword Screen = "forgot-password"
	ScreenResetPassword  Screen = "reset-password"
	ScreenRoutines       Screen = "routines"
	ScreenRoutineNew     Screen = "routine-new"
	ScreenRoutineEdit    Screen = "routine-edit"
	ScreenPreflight      Screen = "preflight"
	ScreenRun            Screen = "run"
	ScreenDone           Screen = "done"
	ScreenHistories      Screen = "histories"
	ScreenHistory        Screen = "history"
	ScreenSettings       Screen = "settings"
	ScreenNotFound       Screen = "not-found"
)

// Match resolves a path to a screen and its numeric parameter, if any.
func Match(path string) (Screen, int64) {
	switch path {
	case Home:
		return ScreenHome, 0
	case Login:
		return ScreenLogin, 0
	case Signup:
		return ScreenSignup, 0
	case ForgotPassword:
		return ScreenForgotPassword, 0
	case ResetPassword:
		return ScreenResetPassword, 0
	case Routines:
		return ScreenRoutines, 0
	case Routines + "/new":
		return ScreenRoutineNew, 0
	case Histories:
		return ScreenHistories, 0
	case Settings:
		return ScreenSettings, 0
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return ScreenNotFound, 0
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return ScreenNotFound, 0
	}
	switch {
	case parts[0] == "routines" && len(parts) == 2:
		return ScreenRoutineEdit, id
	case parts[0] == "routines" && len(parts) == 3 && parts[2] == "preflight":
		return ScreenPreflight, id
	case parts[0] == "run" && len(parts) == 2:
		return ScreenRun, id
	case parts[0] == "run" && len(parts) == 3 && parts[2] == "done":
		return ScreenDone, id
	case parts[0] == "histories" && len(parts) == 2:
		return ScreenHistory, id
	}
	return ScreenNotFound, 0
}

func RoutinePath(id int64) string   { return fmt.Sprintf("%s/%d", Routines, id) }
func PreflightPath(id int64) string { return fmt.Sprintf("%s/%d/preflight", Routines, id) }
func RunPath(historyID int64) string {
	return fmt.Sprintf("%s/%d", Run, historyID)
}
func DonePath(historyID int64) string    { return fmt.Sprintf("%s/%d/done", Run, historyID) }
func HistoryPath(historyID int64) string { return fmt.Sprintf("%s/%d", Histories, historyID) }
