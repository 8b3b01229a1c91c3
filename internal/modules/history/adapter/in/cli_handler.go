package in

import (
	"context"

	"routinectl/internal/modules/history/dto"
	historyin "routinectl/internal/modules/history/port/in"
)

type CLIHandler struct {
	usecase historyin.Usecase
}

func NewCLIHandler(usecase historyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, page, perPage int) (dto.PageOutput, error) {
	return h.usecase.List(ctx, dto.ListInput{Page: page, PerPage: perPage})
}

func (h CLIHandler) Show(ctx context.Context, id int64) (dto.HistoryOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Export(ctx context.Context, id int64, dir string) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx, dto.ExportInput{HistoryID: id, Dir: dir})
}
