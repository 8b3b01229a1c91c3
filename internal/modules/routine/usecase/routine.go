package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"routinectl/internal/modules/routine/domain"
	"routinectl/internal/modules/routine/dto"
	routinein "routinectl/internal/modules/routine/port/in"
	routineout "routinectl/internal/modules/routine/port/out"
	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	apperrors "routinectl/internal/platform/errors"
)

type Interactor struct {
	gateway routineout.Gateway
	runs    runin.Usecase
}

func NewInteractor(gateway routineout.Gateway, runs runin.Usecase) routinein.Usecase {
	return &Interactor{gateway: gateway, runs: runs}
}

func (i *Interactor) List(ctx context.Context) ([]dto.RoutineOutput, error) {
	routines, err := i.gateway.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoutineOutput, 0, len(routines))
	for _, r := range routines {
		out = append(out, toOutput(r))
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, id int64) (dto.RoutineOutput, error) {
	if id <= 0 {
		return dto.RoutineOutput{}, fmt.Errorf("%w: routine id must be positive", apperrors.ErrInvalidInput)
	}
	r, err := i.gateway.Get(ctx, id)
	if err != nil {
		return dto.RoutineOutput{}, err
	}
	return toOutput(r), nil
}

func (i *Interactor) Create(ctx context.Context, input dto.RoutineInput) (dto.RoutineOutput, error) {
	draft, err := domain.Draft{Title: input.Title, Tasks: input.Tasks}.Normalize()
	if err != nil {
		return dto.RoutineOutput{}, err
	}
	i.csrf(ctx)
	r, err := i.gateway.Create(ctx, draft)
	if err != nil {
		return dto.RoutineOutput{}, err
	}
	return toOutput(r), nil
}

func (i *Interactor) Update(ctx context.Context, id int64, input dto.RoutineInput) (dto.RoutineOutput, error) {
	if id <= 0 {
		return dto.RoutineOutput{}, fmt.Errorf("%w: routine id must be positive", apperrors.ErrInvalidInput)
	}
	draft, err := domain.Draft{Title: input.Title, Tasks: input.Tasks}.Normalize()
	if err != nil {
		return dto.RoutineOutput{}, err
	}
	i.csrf(ctx)
	r, err := i.gateway.Update(ctx, id, draft)
	if err != nil {
		return dto.RoutineOutput{}, err
	}
	return toOutput(r), nil
}

func (i *Interactor) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: routine id must be positive", apperrors.ErrInvalidInput)
	}
	i.csrf(ctx)
	return i.gateway.Delete(ctx, id)
}

func (i *Interactor) MoveTask(tasks []string, from, to int) []string {
	return domain.MoveTask(tasks, from, to)
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	if input.RoutineID <= 0 {
		return dto.StartOutput{}, fmt.Errorf("%w: routine id must be positive", apperrors.ErrInvalidInput)
	}
	draft, err := domain.Draft{Title: input.Title, Tasks: input.Tasks}.Normalize()
	if err != nil {
		return dto.StartOutput{}, err
	}
	i.csrf(ctx)
	if _, err := i.gateway.Update(ctx, input.RoutineID, draft); err != nil {
		return dto.StartOutput{}, apperrors.Step("reorder", err)
	}
	started, err := i.gateway.Start(ctx, input.RoutineID)
	if err != nil {
		return dto.StartOutput{}, apperrors.Step("start", err)
	}
	stage := rundto.StageInput{
		HistoryID: started.HistoryID,
		Title:     draft.Title,
		Tasks:     draft.Tasks,
		StartedAt: started.StartedAt,
	}
	if err := i.runs.Stage(ctx, stage); err != nil {
		return dto.StartOutput{}, fmt.Errorf("stage run %d: %w", started.HistoryID, err)
	}
	return dto.StartOutput{HistoryID: started.HistoryID, StartedAt: started.StartedAt}, nil
}

func (i *Interactor) csrf(ctx context.Context) {
	if err := i.gateway.CSRF(ctx); err != nil {
		slog.DebugContext(ctx, "csrf cookie request failed", "err", err)
	}
}

func toOutput(r domain.Routine) dto.RoutineOutput {
	return dto.RoutineOutput{ID: r.ID, Title: r.Title, Tasks: append([]string(nil), r.Tasks...)}
}
