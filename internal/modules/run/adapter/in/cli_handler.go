package in

import (
	"context"

	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
)

type CLIHandler struct {
	usecase runin.Usecase
}

func NewCLIHandler(usecase runin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Open(ctx context.Context, historyID int64) (runin.Controller, error) {
	return h.usecase.Open(ctx, historyID)
}

func (h CLIHandler) Summary(ctx context.Context, historyID int64) (rundto.Summary, error) {
	return h.usecase.Summary(ctx, historyID)
}

func (h CLIHandler) Discard(ctx context.Context, historyID int64) error {
	return h.usecase.Discard(ctx, historyID)
}
