package in

import (
	"context"

	"routinectl/internal/modules/auth/domain"
	"routinectl/internal/modules/auth/dto"
)

type Usecase interface {
	State() dto.SessionOutput
	RefreshIdentity(ctx context.Context) (dto.SessionOutput, error)
	Login(ctx context.Context, input dto.LoginInput) error
	Register(ctx context.Context, input dto.RegisterInput) error
	Logout(ctx context.Context) error
	FinishLogout()
	StartAccountDeletion()
	DeleteAccount(ctx context.Context, input dto.DeleteAccountInput) error
	SaveSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
	DismissTutorial(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, input dto.ResetPasswordInput) (string, error)
	Invalidate()
}
