package out

import (
	"context"

	"routinectl/internal/modules/routine/domain"
)

type Gateway interface {
	CSRF(ctx context.Context) error
	List(ctx context.Context) ([]domain.Routine, error)
	Get(ctx context.Context, id int64) (domain.Routine, error)
	Create(ctx context.Context, draft domain.Draft) (domain.Routine, error)
	Update(ctx context.Context, id int64, draft domain.Draft) (domain.Routine, error)
	Delete(ctx context.Context, id int64) error
	Start(ctx context.Context, id int64) (domain.Started, error)
}
