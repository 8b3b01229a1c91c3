package in

import (
	"context"

	"routinectl/internal/modules/celebration/dto"
	celebrationin "routinectl/internal/modules/celebration/port/in"
)

type CLIHandler struct {
	usecase celebrationin.Usecase
}

func NewCLIHandler(usecase celebrationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) Celebrate(ctx context.Context, input dto.CelebrateInput) (dto.CelebrateOutput, error) {
	return h.usecase.Celebrate(ctx, input)
}
