package out

import (
	"context"
	"fmt"
	"net/http"

	runout "routinectl/internal/modules/run/port/out"
	"routinectl/internal/platform/httpapi"
)

type APIGateway struct {
	client *httpapi.Client
}

func NewAPIGateway(client *httpapi.Client) runout.Gateway {
	return &APIGateway{client: client}
}

func (g *APIGateway) CSRF(ctx context.Context) error {
	res := g.client.CSRFCookie(ctx)
	if res.Status == httpapi.StatusTransportError {
		return res.Failure(ctx, "csrf cookie")
	}
	return nil
}

func (g *APIGateway) Complete(ctx context.Context, historyID int64) error {
	return g.post(ctx, fmt.Sprintf("/api/histories/%d/complete", historyID), "complete run")
}

func (g *APIGateway) Abort(ctx context.Context, historyID int64) error {
	return g.post(ctx, fmt.Sprintf("/api/histories/%d/abort", historyID), "abort run")
}

func (g *APIGateway) post(ctx context.Context, path, op string) error {
	res := g.client.Do(ctx, http.MethodPost, path, nil, httpapi.Options{XSRF: true})
	if res.Is(http.StatusOK) {
		return nil
	}
	return res.Failure(ctx, op)
}
