package guard

import (
	"sync/atomic"

	apperrors "routinectl/internal/platform/errors"
)

// Submit prevents a mutating action from running twice concurrently. The
// zero value is ready to use.
type Submit struct {
	busy atomic.Bool
}

// Run executes fn unless a previous Run is still pending, in which case it
// returns ErrInFlight without calling fn. The flag is always released when
// fn returns, including on panic.
func (g *Submit) Run(fn func() error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return apperrors.ErrInFlight
	}
	defer g.busy.Store(false)
	return fn()
}

// Busy reports whether an action is pending; views use it to disable controls.
func (g *Submit) Busy() bool {
	return g.busy.Load()
}
