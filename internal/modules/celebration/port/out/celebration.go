package out

import (
	"context"

	"routinectl/internal/modules/celebration/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Celebrate(ctx context.Context, manifest domain.Manifest, summary domain.Summary) ([]string, error)
}
