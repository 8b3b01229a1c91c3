package out

import (
	"context"
	"fmt"
	"net/http"

	"routinectl/internal/modules/auth/domain"
	"routinectl/internal/modules/auth/dto"
	authout "routinectl/internal/modules/auth/port/out"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/httpapi"
)

type APIGateway struct {
	client *httpapi.Client
}

func NewAPIGateway(client *httpapi.Client) authout.Gateway {
	return &APIGateway{client: client}
}

var xsrf = httpapi.Options{XSRF: true}

func (g *APIGateway) CSRF(ctx context.Context) error {
	res := g.client.CSRFCookie(ctx)
	if res.Status == httpapi.StatusTransportError {
		return res.Failure(ctx, "csrf cookie")
	}
	return nil
}

func (g *APIGateway) Login(ctx context.Context, email, password string) error {
	res := g.client.Do(ctx, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, xsrf)
	if res.Is(http.StatusNoContent) {
		return nil
	}
	return withMessage(res.Failure(ctx, "login"), httpapi.Message(res.Body))
}

func (g *APIGateway) Register(ctx context.Context, input dto.RegisterInput) error {
	payload := map[string]string{
		"email":                 input.Email,
		"password":              input.Password,
		"password_confirmation": input.PasswordConfirmation,
	}
	res := g.client.Do(ctx, http.MethodPost, "/register", payload, xsrf)
	if res.Is(http.StatusNoContent) {
		return nil
	}
	return withMessage(res.Failure(ctx, "register"), httpapi.DisplayMessage(res.Body))
}

func (g *APIGateway) Logout(ctx context.Context) error {
	res := g.client.Do(ctx, http.MethodPost, "/logout", nil, xsrf)
	if res.Is(http.StatusNoContent) {
		return nil
	}
	return withMessage(res.Failure(ctx, "logout"), res.Body)
}

type mePayload struct {
	User     *domain.User     `json:"user"`
	Settings *domain.Settings `json:"settings"`
}

func (g *APIGateway) Me(ctx context.Context) (domain.Snapshot, error) {
	res := g.client.Do(ctx, http.MethodGet, "/api/me", nil, httpapi.Options{})
	if !res.Is(http.StatusOK) {
		failure := res.Failure(ctx, "me")
		if failure.Kind == apperrors.KindUnauthenticated {
			return domain.Snapshot{}, failure
		}
		return domain.Snapshot{}, withMessage(failure, res.Body)
	}
	payload, err := httpapi.DecodeData[mePayload](res)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap := domain.Snapshot{User: payload.User, Settings: payload.Settings}
	if !snap.Complete() {
		return domain.Snapshot{}, fmt.Errorf("%w: me response lacks user or settings", apperrors.ErrMalformedPayload)
	}
	return snap, nil
}

func (g *APIGateway) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	res := g.client.Do(ctx, http.MethodPatch, "/api/settings", patch, xsrf)
	if !res.Is(http.StatusOK) {
		return domain.Settings{}, withMessage(res.Failure(ctx, "update settings"), res.Body)
	}
	return httpapi.DecodeData[domain.Settings](res)
}

func (g *APIGateway) DismissTutorial(ctx context.Context) error {
	res := g.client.Do(ctx, http.MethodPost, "/api/tutorial/dismiss", nil, xsrf)
	if res.Is(http.StatusOK) || res.Is(http.StatusNoContent) {
		return nil
	}
	return res.Failure(ctx, "dismiss tutorial")
}

type statusBody struct {
	Status string `json:"status"`
}

func (g *APIGateway) ForgotPassword(ctx context.Context, email string) (string, error) {
	res := g.client.Do(ctx, http.MethodPost, "/forgot-password", map[string]string{"email": email}, xsrf)
	if !res.Is(http.StatusOK) {
		return "", withMessage(res.Failure(ctx, "forgot password"), httpapi.DisplayMessage(res.Body))
	}
	return statusOf(res), nil
}

func (g *APIGateway) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) (string, error) {
	payload := map[string]string{
		"token":                 input.Token,
		"email":                 input.Email,
		"password":              input.Password,
		"password_confirmation": input.PasswordConfirmation,
	}
	res := g.client.Do(ctx, http.MethodPost, "/reset-password", payload, xsrf)
	if !res.Is(http.StatusOK) {
		return "", withMessage(res.Failure(ctx, "reset password"), httpapi.DisplayMessage(res.Body))
	}
	return statusOf(res), nil
}

func (g *APIGateway) DeleteAccount(ctx context.Context, password string) error {
	var payload any
	if password != "" {
		payload = map[string]string{"password": password}
	}
	res := g.client.Do(ctx, http.MethodDelete, "/api/account", payload, xsrf)
	if res.Is(http.StatusNoContent) {
		return nil
	}
	return res.Failure(ctx, "delete account")
}

func statusOf(res httpapi.Result) string {
	body, err := httpapi.Decode[statusBody](res)
	if err != nil {
		return ""
	}
	return body.Status
}

// withMessage overrides the display text, except for transport failures
// whose message already is the body.
func withMessage(e *apperrors.APIError, message string) *apperrors.APIError {
	if e.Kind != apperrors.KindTransport && message != "" {
		e.Message = message
	}
	return e
}
