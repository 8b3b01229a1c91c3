package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"routinectl/internal/modules/auth/domain"
	authdto "routinectl/internal/modules/auth/dto"
	authin "routinectl/internal/modules/auth/port/in"
	authout "routinectl/internal/modules/auth/port/out"
	"routinectl/internal/modules/auth/service"
	apperrors "routinectl/internal/platform/errors"
)

const (
	meParseError       = "failed to parse /api/me response"
	settingsParseError = "failed to parse /api/settings response"
)

// Interactor owns the process-wide session. Every operation clears the
// previous error first and records its own failure, if any.
type Interactor struct {
	gateway authout.Gateway
	cache   *service.Cache

	mu      sync.Mutex
	session domain.Session
}

func NewInteractor(gateway authout.Gateway, cache *service.Cache) authin.Usecase {
	return &Interactor{gateway: gateway, cache: cache, session: domain.NewSession()}
}

func (i *Interactor) State() authdto.SessionOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	return toOutput(i.session)
}

func (i *Interactor) RefreshIdentity(ctx context.Context) (authdto.SessionOutput, error) {
	i.update(func(s *domain.Session) { s.Error = "" })
	snap, err := i.cache.Load(ctx, i.gateway.Me)
	if err == nil {
		return i.updated(func(s *domain.Session) { s.Authenticate(snap) }), nil
	}
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		return i.updated(func(s *domain.Session) { s.SignOut() }), nil
	}
	message := apperrors.MessageOf(err)
	if errors.Is(err, apperrors.ErrMalformedPayload) {
		i.cache.Invalidate()
		message = meParseError
	}
	return i.updated(func(s *domain.Session) {
		s.SignOut()
		s.Error = message
	}), err
}

func (i *Interactor) Login(ctx context.Context, input authdto.LoginInput) error {
	i.update(func(s *domain.Session) { s.Error = "" })
	i.csrf(ctx)
	if err := i.gateway.Login(ctx, input.Email, input.Password); err != nil {
		i.fail(err)
		return err
	}
	i.cache.Invalidate()
	_, err := i.RefreshIdentity(ctx)
	return err
}

func (i *Interactor) Register(ctx context.Context, input authdto.RegisterInput) error {
	i.update(func(s *domain.Session) { s.Error = "" })
	i.csrf(ctx)
	if err := i.gateway.Register(ctx, input); err != nil {
		i.fail(err)
		return err
	}
	i.cache.Invalidate()
	_, err := i.RefreshIdentity(ctx)
	return err
}

// Logout drops identity before any network call and always ends signed out.
func (i *Interactor) Logout(ctx context.Context) error {
	i.endSession()
	i.csrf(ctx)
	err := i.gateway.Logout(ctx)
	i.update(func(s *domain.Session) {
		if err != nil {
			s.Error = apperrors.MessageOf(err)
		}
		s.SignOut()
	})
	return err
}

func (i *Interactor) FinishLogout() {
	i.update(func(s *domain.Session) { s.LoggingOut = false })
}

// StartAccountDeletion clears identity and the cache synchronously so that
// route guards never observe a stale authenticated session.
func (i *Interactor) StartAccountDeletion() {
	i.endSession()
}

func (i *Interactor) endSession() {
	i.update(func(s *domain.Session) {
		s.Error = ""
		s.LoggingOut = true
		s.Suspend()
	})
	i.cache.Invalidate()
}

// DeleteAccount restores the session from the server when deletion fails,
// since the account still exists.
func (i *Interactor) DeleteAccount(ctx context.Context, input authdto.DeleteAccountInput) error {
	i.endSession()
	i.csrf(ctx)
	err := i.gateway.DeleteAccount(ctx, input.Password)
	if err == nil {
		i.update(func(s *domain.Session) { s.SignOut() })
		i.cache.Invalidate()
		return nil
	}
	i.update(func(s *domain.Session) { s.LoggingOut = false })
	if _, refreshErr := i.RefreshIdentity(ctx); refreshErr != nil {
		slog.WarnContext(ctx, "refresh after failed account deletion", "err", refreshErr)
	}
	i.fail(err)
	return err
}

func (i *Interactor) SaveSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	i.update(func(s *domain.Session) { s.Error = "" })
	i.csrf(ctx)
	settings, err := i.gateway.UpdateSettings(ctx, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrMalformedPayload) {
			i.update(func(s *domain.Session) { s.Error = settingsParseError })
		} else {
			i.fail(err)
		}
		return domain.Settings{}, err
	}
	i.update(func(s *domain.Session) { s.ReplaceSettings(settings) })
	i.cache.UpdateSettings(settings)
	return settings, nil
}

func (i *Interactor) DismissTutorial(ctx context.Context) error {
	i.update(func(s *domain.Session) { s.Error = "" })
	i.csrf(ctx)
	if err := i.gateway.DismissTutorial(ctx); err != nil {
		i.fail(err)
		return err
	}
	i.cache.Invalidate()
	_, err := i.RefreshIdentity(ctx)
	return err
}

func (i *Interactor) ForgotPassword(ctx context.Context, email string) (string, error) {
	i.update(func(s *domain.Session) { s.Error = "" })
	if email == "" {
		return "", apperrors.ErrInvalidInput
	}
	i.csrf(ctx)
	status, err := i.gateway.ForgotPassword(ctx, email)
	if err != nil {
		i.fail(err)
	}
	return status, err
}

func (i *Interactor) ResetPassword(ctx context.Context, input authdto.ResetPasswordInput) (string, error) {
	i.update(func(s *domain.Session) { s.Error = "" })
	if input.Token == "" || input.Email == "" {
		return "", apperrors.ErrInvalidInput
	}
	i.csrf(ctx)
	status, err := i.gateway.ResetPassword(ctx, input)
	if err != nil {
		i.fail(err)
	}
	return status, err
}

func (i *Interactor) Invalidate() {
	i.cache.Invalidate()
}

// csrf failures are not fatal: the protected request that follows reports them.
func (i *Interactor) csrf(ctx context.Context) {
	if err := i.gateway.CSRF(ctx); err != nil {
		slog.DebugContext(ctx, "csrf cookie request failed", "err", err)
	}
}

func (i *Interactor) fail(err error) {
	i.update(func(s *domain.Session) { s.Error = apperrors.MessageOf(err) })
}

func (i *Interactor) update(fn func(*domain.Session)) {
	i.mu.Lock()
	fn(&i.session)
	i.mu.Unlock()
}

func (i *Interactor) updated(fn func(*domain.Session)) authdto.SessionOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn(&i.session)
	return toOutput(i.session)
}

func toOutput(s domain.Session) authdto.SessionOutput {
	out := authdto.SessionOutput{Status: s.Status, Error: s.Error, LoggingOut: s.LoggingOut}
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	if s.Settings != nil {
		settings := *s.Settings
		out.Settings = &settings
	}
	return out
}
