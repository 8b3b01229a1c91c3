package out

import (
	"context"

	"routinectl/internal/modules/run/domain"
)

// PayloadStore keeps run payloads by history id. Get returns
// ErrPayloadUnavailable when nothing is stored and ErrMalformedPayload when
// the stored value cannot be read back.
type PayloadStore interface {
	Get(ctx context.Context, historyID int64) (domain.Payload, error)
	Set(ctx context.Context, historyID int64, payload domain.Payload) error
	Clear(ctx context.Context, historyID int64) error
}

type Gateway interface {
	CSRF(ctx context.Context) error
	Complete(ctx context.Context, historyID int64) error
	Abort(ctx context.Context, historyID int64) error
}
