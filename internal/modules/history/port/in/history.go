package in

import (
	"context"

	"routinectl/internal/modules/history/dto"
)

type Usecase interface {
	List(ctx context.Context, input dto.ListInput) (dto.PageOutput, error)
	Get(ctx context.Context, id int64) (dto.HistoryOutput, error)
	// Export writes the history as a markdown note under input.Dir. An
	// existing note keeps its own text; only frontmatter and the task block
	// are rewritten.
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
