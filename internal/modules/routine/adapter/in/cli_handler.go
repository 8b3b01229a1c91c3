package in

import (
	"context"

	"routinectl/internal/modules/routine/dto"
	routinein "routinectl/internal/modules/routine/port/in"
)

type CLIHandler struct {
	usecase routinein.Usecase
}

func NewCLIHandler(usecase routinein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.RoutineOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Show(ctx context.Context, id int64) (dto.RoutineOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Create(ctx context.Context, title string, tasks []string) (dto.RoutineOutput, error) {
	return h.usecase.Create(ctx, dto.RoutineInput{Title: title, Tasks: tasks})
}

func (h CLIHandler) Edit(ctx context.Context, id int64, title string, tasks []string) (dto.RoutineOutput, error) {
	return h.usecase.Update(ctx, id, dto.RoutineInput{Title: title, Tasks: tasks})
}

func (h CLIHandler) Delete(ctx context.Context, id int64) error {
	return h.usecase.Delete(ctx, id)
}

// Move is one preflight reorder step using 1-based positions.
type Move struct {
	From int
	To   int
}

// Start runs preflight: the stored order with moves applied in sequence.
func (h CLIHandler) Start(ctx context.Context, id int64, moves []Move) (dto.StartOutput, error) {
	routine, err := h.usecase.Get(ctx, id)
	if err != nil {
		return dto.StartOutput{}, err
	}
	tasks := routine.Tasks
	for _, m := range moves {
		tasks = h.usecase.MoveTask(tasks, m.From-1, m.To-1)
	}
	return h.usecase.Start(ctx, dto.StartInput{RoutineID: id, Title: routine.Title, Tasks: tasks})
}
