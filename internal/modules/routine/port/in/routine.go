package in

import (
	"context"

	"routinectl/internal/modules/routine/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.RoutineOutput, error)
	Get(ctx context.Context, id int64) (dto.RoutineOutput, error)
	Create(ctx context.Context, input dto.RoutineInput) (dto.RoutineOutput, error)
	Update(ctx context.Context, id int64, input dto.RoutineInput) (dto.RoutineOutput, error)
	Delete(ctx context.Context, id int64) error
	// MoveTask reorders a preflight list locally; nothing is sent.
	MoveTask(tasks []string, from, to int) []string
	// Start saves the preflight order, opens a history and stages the run
	// payload for it.
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
}
