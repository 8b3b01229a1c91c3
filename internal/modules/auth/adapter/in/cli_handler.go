package in

import (
	"context"

	authdto "routinectl/internal/modules/auth/dto"
	authin "routinectl/internal/modules/auth/port/in"
)

type CLIHandler struct {
	usecase authin.Usecase
}

func NewCLIHandler(usecase authin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, email, password string) (authdto.SessionOutput, error) {
	err := h.usecase.Login(ctx, authdto.LoginInput{Email: email, Password: password})
	return h.usecase.State(), err
}

func (h CLIHandler) Register(ctx context.Context, email, password, confirmation string) (authdto.SessionOutput, error) {
	err := h.usecase.Register(ctx, authdto.RegisterInput{Email: email, Password: password, PasswordConfirmation: confirmation})
	return h.usecase.State(), err
}

func (h CLIHandler) Logout(ctx context.Context) error {
	err := h.usecase.Logout(ctx)
	h.usecase.FinishLogout()
	return err
}

func (h CLIHandler) WhoAmI(ctx context.Context) (authdto.SessionOutput, error) {
	return h.usecase.RefreshIdentity(ctx)
}

func (h CLIHandler) SaveSettings(ctx context.Context, patch authdto.SettingsPatch) (authdto.Settings, error) {
	return h.usecase.SaveSettings(ctx, patch)
}

func (h CLIHandler) DismissTutorial(ctx context.Context) error {
	return h.usecase.DismissTutorial(ctx)
}

func (h CLIHandler) ForgotPassword(ctx context.Context, email string) (string, error) {
	return h.usecase.ForgotPassword(ctx, email)
}

func (h CLIHandler) ResetPassword(ctx context.Context, token, email, password, confirmation string) (string, error) {
	return h.usecase.ResetPassword(ctx, authdto.ResetPasswordInput{
		Token:                token,
		Email:                email,
		Password:             password,
		PasswordConfirmation: confirmation,
	})
}

func (h CLIHandler) DeleteAccount(ctx context.Context, password string) error {
	err := h.usecase.DeleteAccount(ctx, authdto.DeleteAccountInput{Password: password})
	if err == nil {
		h.usecase.FinishLogout()
	}
	return err
}
