package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"routinectl/internal/modules/run/domain"
	"routinectl/internal/modules/run/dto"
	runout "routinectl/internal/modules/run/port/out"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/guard"
)

// Controller is the execution flow for one history id. Intermediate steps
// are local; only the last step and abort reach the API.
type Controller struct {
	gateway runout.Gateway
	submit  guard.Submit

	mu   sync.Mutex
	flow domain.Flow
}

func NewController(gateway runout.Gateway, historyID int64) *Controller {
	return &Controller{gateway: gateway, flow: domain.NewFlow(historyID)}
}

func (c *Controller) Load(payload domain.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flow.Load(payload)
}

func (c *Controller) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flow.Fail(message)
}

func (c *Controller) State() dto.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toState(c.flow)
}

func (c *Controller) Busy() bool {
	return c.submit.Busy()
}

func (c *Controller) Advance(ctx context.Context) (dto.FlowState, error) {
	err := c.submit.Run(func() error {
		c.mu.Lock()
		if err := c.flow.CheckRunning(); err != nil {
			c.mu.Unlock()
			return err
		}
		c.flow.Err = ""
		stepped := c.flow.Step()
		historyID := c.flow.HistoryID
		c.mu.Unlock()
		if stepped {
			return nil
		}

		if err := c.finish(ctx, historyID, c.gateway.Complete, "complete"); err != nil {
			return err
		}
		c.mu.Lock()
		c.flow.MarkCompleted()
		c.mu.Unlock()
		return nil
	})
	return c.State(), err
}

func (c *Controller) Abort(ctx context.Context) (dto.FlowState, error) {
	err := c.submit.Run(func() error {
		c.mu.Lock()
		if err := c.flow.CheckRunning(); err != nil {
			c.mu.Unlock()
			return err
		}
		c.flow.Err = ""
		historyID := c.flow.HistoryID
		c.mu.Unlock()

		if err := c.finish(ctx, historyID, c.gateway.Abort, "abort"); err != nil {
			return err
		}
		c.mu.Lock()
		c.flow.MarkAborted()
		c.mu.Unlock()
		return nil
	})
	return c.State(), err
}

// finish runs a terminal call. On failure the phase is kept so the same
// signal can be retried.
func (c *Controller) finish(ctx context.Context, historyID int64, call func(context.Context, int64) error, verb string) error {
	if err := c.gateway.CSRF(ctx); err != nil {
		slog.DebugContext(ctx, "csrf cookie request failed", "err", err)
	}
	if err := call(ctx, historyID); err != nil {
		c.mu.Lock()
		c.flow.Err = fmt.Sprintf("%s failed (%s)", verb, apperrors.StatusOf(err))
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Controller) ElapsedMinutes(now time.Time, enabled bool) *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.ElapsedMinutes(now, enabled)
}

func (c *Controller) EstimatedMinutes() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.EstimatedMinutes()
}

func toState(f domain.Flow) dto.FlowState {
	task, hasTask := f.CurrentTask()
	state := dto.FlowState{
		HistoryID:      f.HistoryID,
		Phase:          string(f.Phase),
		Title:          f.Payload.Title,
		Index:          f.Index,
		Total:          len(f.Payload.Tasks),
		CurrentTask:    task,
		HasTask:        hasTask,
		RemainingCount: f.RemainingCount(),
		Error:          f.Err,
	}
	if started, ok := f.StartedAt(); ok {
		state.StartedAt = &started
	}
	return state
}
