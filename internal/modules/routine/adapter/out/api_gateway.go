package out

import (
	"context"
	"fmt"
	"net/http"

	"routinectl/internal/modules/routine/domain"
	routineout "routinectl/internal/modules/routine/port/out"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/httpapi"
)

type APIGateway struct {
	client *httpapi.Client
}

func NewAPIGateway(client *httpapi.Client) routineout.Gateway {
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

func (g *APIGateway) List(ctx context.Context) ([]domain.Routine, error) {
	res := g.client.Do(ctx, http.MethodGet, "/api/routines", nil, httpapi.Options{})
	if !res.Is(http.StatusOK) {
		return nil, res.Failure(ctx, "list routines")
	}
	return httpapi.DecodeData[[]domain.Routine](res)
}

func (g *APIGateway) Get(ctx context.Context, id int64) (domain.Routine, error) {
	res := g.client.Do(ctx, http.MethodGet, routinePath(id), nil, httpapi.Options{})
	if res.Is(http.StatusNotFound) {
		return domain.Routine{}, fmt.Errorf("routine %d: %w", id, apperrors.ErrNotFound)
	}
	if !res.Is(http.StatusOK) {
		return domain.Routine{}, res.Failure(ctx, "get routine")
	}
	return httpapi.DecodeData[domain.Routine](res)
}

func (g *APIGateway) Create(ctx context.Context, draft domain.Draft) (domain.Routine, error) {
	res := g.client.Do(ctx, http.MethodPost, "/api/routines", draft, xsrf)
	if !res.Is(http.StatusCreated) {
		return domain.Routine{}, res.Failure(ctx, "create routine")
	}
	return httpapi.DecodeData[domain.Routine](res)
}

func (g *APIGateway) Update(ctx context.Context, id int64, draft domain.Draft) (domain.Routine, error) {
	res := g.client.Do(ctx, http.MethodPatch, routinePath(id), draft, xsrf)
	if res.Is(http.StatusNotFound) {
		return domain.Routine{}, fmt.Errorf("routine %d: %w", id, apperrors.ErrNotFound)
	}
	if !res.Is(http.StatusOK) {
		return domain.Routine{}, res.Failure(ctx, "update routine")
	}
	return httpapi.DecodeData[domain.Routine](res)
}

func (g *APIGateway) Delete(ctx context.Context, id int64) error {
	res := g.client.Do(ctx, http.MethodDelete, routinePath(id), nil, xsrf)
	if res.Is(http.StatusNotFound) {
		return fmt.Errorf("routine %d: %w", id, apperrors.ErrNotFound)
	}
	if !res.Is(http.StatusOK) {
		return res.Failure(ctx, "delete routine")
	}
	return nil
}

func (g *APIGateway) Start(ctx context.Context, id int64) (domain.Started, error) {
	res := g.client.Do(ctx, http.MethodPost, routinePath(id)+"/start", nil, xsrf)
	if !res.Is(http.StatusCreated) {
		return domain.Started{}, res.Failure(ctx, "start routine")
	}
	started, err := httpapi.DecodeData[domain.Started](res)
	if err != nil {
		return domain.Started{}, err
	}
	if started.HistoryID <= 0 {
		return domain.Started{}, apperrors.ErrMissingHistoryID
	}
	return started, nil
}

func routinePath(id int64) string {
	return fmt.Sprintf("/api/routines/%d", id)
}
