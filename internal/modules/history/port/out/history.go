package out

import (
	"context"

	"routinectl/internal/modules/history/domain"
)

type Gateway interface {
	List(ctx context.Context, path string) (domain.Page, error)
	Get(ctx context.Context, id int64) (domain.History, error)
}

type NoteStore interface {
	Save(ctx context.Context, dir string, history domain.History) (path string, updated bool, err error)
}
