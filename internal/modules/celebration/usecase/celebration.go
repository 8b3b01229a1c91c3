package usecase

import (
	"context"

	"routinectl/internal/modules/celebration/domain"
	"routinectl/internal/modules/celebration/dto"
	celebrationin "routinectl/internal/modules/celebration/port/in"
	"routinectl/internal/modules/celebration/service"
)

type Interactor struct {
	svc *service.CelebrationService
}

func NewInteractor(svc *service.CelebrationService) celebrationin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Celebrate(ctx context.Context, input dto.CelebrateInput) (dto.CelebrateOutput, error) {
	summary := domain.Summary{
		HistoryID:      input.HistoryID,
		Title:          input.Title,
		Tasks:          input.Tasks,
		ElapsedMinutes: input.ElapsedMinutes,
	}
	banners, fallback, err := i.svc.Celebrate(ctx, summary)
	if err != nil {
		return dto.CelebrateOutput{}, err
	}
	out := dto.CelebrateOutput{Fallback: fallback, Banners: make([]dto.BannerOutput, 0, len(banners))}
	for _, b := range banners {
		out.Banners = append(out.Banners, dto.BannerOutput{Source: b.Source, Lines: b.Lines})
	}
	return out, nil
}
