package out

import (
	"context"

	"routinectl/internal/modules/auth/domain"
	"routinectl/internal/modules/auth/dto"
)

// Gateway is the remote side of authentication. Failed calls return an
// *apperrors.APIError whose Message is what the session should display.
type Gateway interface {
	CSRF(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, input dto.RegisterInput) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (domain.Snapshot, error)
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
	DismissTutorial(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, input dto.ResetPasswordInput) (string, error)
	DeleteAccount(ctx context.Context, password string) error
}
