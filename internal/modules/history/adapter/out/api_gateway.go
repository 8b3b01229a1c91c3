package out

import (
	"context"
	"fmt"
	"net/http"

	"routinectl/internal/modules/history/domain"
	historyout "routinectl/internal/modules/history/port/out"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/httpapi"
)

type APIGateway struct {
	client *httpapi.Client
}

func NewAPIGateway(client *httpapi.Client) historyout.Gateway {
	return &APIGateway{client: client}
}

type pageBody struct {
	Data *[]domain.History `json:"data"`
	Meta struct {
		NextPageURL *string `json:"next_page_url"`
		PrevPageURL *string `json:"prev_page_url"`
	} `json:"meta"`
}

func (g *APIGateway) List(ctx context.Context, path string) (domain.Page, error) {
	res := g.client.Do(ctx, http.MethodGet, path, nil, httpapi.Options{})
	if !res.Is(http.StatusOK) {
		return domain.Page{}, res.Failure(ctx, "list histories")
	}
	body, err := httpapi.Decode[pageBody](res)
	if err != nil {
		return domain.Page{}, err
	}
	if body.Data == nil {
		return domain.Page{}, fmt.Errorf("%w: missing data", apperrors.ErrMalformedPayload)
	}
	return domain.Page{
		Items: *body.Data,
		Next:  domain.PagePath(body.Meta.NextPageURL),
		Prev:  domain.PagePath(body.Meta.PrevPageURL),
	}, nil
}

func (g *APIGateway) Get(ctx context.Context, id int64) (domain.History, error) {
	res := g.client.Do(ctx, http.MethodGet, fmt.Sprintf("/api/histories/%d", id), nil, httpapi.Options{})
	if res.Is(http.StatusNotFound) {
		return domain.History{}, fmt.Errorf("history %d: %w", id, apperrors.ErrNotFound)
	}
	if !res.Is(http.StatusOK) {
		return domain.History{}, res.Failure(ctx, "get history")
	}
	return httpapi.DecodeData[domain.History](res)
}
