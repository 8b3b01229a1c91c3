package in

import (
	"context"
	"time"

	"routinectl/internal/modules/run/dto"
)

type Usecase interface {
	// Stage stores the payload a run screen will read for historyID.
	Stage(ctx context.Context, input dto.StageInput) error
	// Open loads the payload and returns a controller. The controller is
	// returned even when loading fails; it then sits in the error phase.
	Open(ctx context.Context, historyID int64) (Controller, error)
	Summary(ctx context.Context, historyID int64) (dto.Summary, error)
	Discard(ctx context.Context, historyID int64) error
}

// Controller drives one run. Advance and Abort are guarded: a call made
// while the previous one is pending returns apperrors.ErrInFlight.
type Controller interface {
	State() dto.FlowState
	Advance(ctx context.Context) (dto.FlowState, error)
	Abort(ctx context.Context) (dto.FlowState, error)
	Busy() bool
	ElapsedMinutes(now time.Time, enabled bool) *int
	EstimatedMinutes() (int, bool)
}
