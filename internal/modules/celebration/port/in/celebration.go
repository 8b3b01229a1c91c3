package in

import (
	"context"

	"routinectl/internal/modules/celebration/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	// Celebrate collects banners from every enabled celebrate plugin. A
	// plugin that fails is skipped; when none answers the built-in banner
	// is returned with Fallback set.
	Celebrate(ctx context.Context, input dto.CelebrateInput) (dto.CelebrateOutput, error)
}
