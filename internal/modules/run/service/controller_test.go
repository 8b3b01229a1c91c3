package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"routinectl/internal/modules/run/domain"
	"routinectl/internal/modules/run/service"
	apperrors "routinectl/internal/platform/errors"
)

type fakeGateway struct {
	mu        sync.Mutex
	completes int
	aborts    int
	csrf      int
	failNext  error
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeGateway) CSRF(context.Context) error {
	f.mu.Lock()
	f.csrf++
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) Complete(ctx context.Context, _ int64) error {
	return f.call(&f.completes)
}

func (f *fakeGateway) Abort(ctx context.Context, _ int64) error {
	return f.call(&f.aborts)
}

func (f *fakeGateway) call(counter *int) error {
	f.mu.Lock()
	*counter++
	err := f.failNext
	f.failNext = nil
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeGateway) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completes, f.aborts
}

func running(gw *fakeGateway, tasks ...string) *service.Controller {
	c := service.NewController(gw, 9)
	c.Load(domain.Payload{Title: "Morning", Tasks: tasks})
	return c
}

var serverError = &apperrors.APIError{Op: "complete run", Kind: apperrors.KindGeneric, Status: "500", Message: "operation failed"}

func TestAdvanceReachesLastThenCompletesOnSuccess(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{}
	c := running(gw, "a", "b", "c", "d")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		state, err := c.Advance(ctx)
		if err != nil || state.Index != i+1 || !state.Running() {
			t.Fatalf("advance %d: %+v %v", i, state, err)
		}
	}
	if completes, _ := gw.counts(); completes != 0 {
		t.Fatalf("intermediate steps must stay local")
	}

	gw.failNext = serverError
	state, err := c.Advance(ctx)
	if err == nil || state.Phase != "running" || state.Index != 3 {
		t.Fatalf("failed completion must keep the last task, got %+v %v", state, err)
	}
	if state.Error != "complete failed (500)" {
		t.Fatalf("unexpected error message %q", state.Error)
	}

	state, err = c.Advance(ctx)
	if err != nil || state.Phase != "completed" || state.Error != "" {
		t.Fatalf("retry must complete, got %+v %v", state, err)
	}
	if completes, _ := gw.counts(); completes != 2 {
		t.Fatalf("expected two completion calls, got %d", completes)
	}
}

func TestAbortAvailableFromEveryRunningIndex(t *testing.T) {
	t.Parallel()
	tasks := []string{"a", "b", "c"}
	for idx := range tasks {
		gw := &fakeGateway{}
		c := running(gw, tasks...)
		for i := 0; i < idx; i++ {
			if _, err := c.Advance(context.Background()); err != nil {
				t.Fatalf("advance: %v", err)
			}
		}
		state, err := c.Abort(context.Background())
		if err != nil || state.Phase != "aborted" {
			t.Fatalf("abort at %d: %+v %v", idx, state, err)
		}
		if _, err := c.Abort(context.Background()); !errors.Is(err, apperrors.ErrRunFinished) {
			t.Fatalf("abort after abort must be rejected, got %v", err)
		}
		if _, err := c.Advance(context.Background()); !errors.Is(err, apperrors.ErrRunFinished) {
			t.Fatalf("advance after abort must be rejected, got %v", err)
		}
	}
}

func TestAbortFailureIsRetriable(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{failNext: &apperrors.APIError{Kind: apperrors.KindTransport, Status: "error", Message: "refused"}}
	c := running(gw, "a", "b")
	state, err := c.Abort(context.Background())
	if err == nil || state.Phase != "running" || state.Error != "abort failed (error)" {
		t.Fatalf("expected retriable failure, got %+v %v", state, err)
	}
	if state, err = c.Abort(context.Background()); err != nil || state.Phase != "aborted" {
		t.Fatalf("retry abort: %+v %v", state, err)
	}
}

func TestFullRunOfTwoTasks(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{}
	c := running(gw, "A", "B")
	ctx := context.Background()

	if state := c.State(); state.CurrentTask != "A" || state.RemainingCount != 1 {
		t.Fatalf("unexpected start state %+v", state)
	}
	if state, _ := c.Advance(ctx); state.CurrentTask != "B" || state.Index != 1 {
		t.Fatalf("expected Running(1), got %+v", state)
	}
	if state, _ := c.Advance(ctx); state.Phase != "completed" {
		t.Fatalf("expected completed, got %+v", state)
	}
	if _, err := c.Abort(ctx); !errors.Is(err, apperrors.ErrRunFinished) {
		t.Fatalf("abort after completion must be rejected, got %v", err)
	}
	if completes, aborts := gw.counts(); completes != 1 || aborts != 0 {
		t.Fatalf("expected one completion and no abort, got %d/%d", completes, aborts)
	}
}

func TestGuardDropsSecondSignalWhilePending(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := running(gw, "only")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Advance(ctx)
		done <- err
	}()
	<-gw.entered
	if !c.Busy() {
		t.Fatalf("controller must report busy while completing")
	}
	if _, err := c.Advance(ctx); !errors.Is(err, apperrors.ErrInFlight) {
		t.Fatalf("second advance must be a no-op, got %v", err)
	}
	if _, err := c.Abort(ctx); !errors.Is(err, apperrors.ErrInFlight) {
		t.Fatalf("abort while completing must be a no-op, got %v", err)
	}
	close(gw.block)
	if err := <-done; err != nil {
		t.Fatalf("pending advance: %v", err)
	}
	if c.Busy() {
		t.Fatalf("guard must be released after settling")
	}
	if completes, aborts := gw.counts(); completes != 1 || aborts != 0 {
		t.Fatalf("expected exactly one network call, got %d/%d", completes, aborts)
	}
}

func TestGuardReleasedAfterFailure(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{failNext: serverError}
	c := running(gw, "only")
	if _, err := c.Advance(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if c.Busy() {
		t.Fatalf("guard stuck after failure")
	}
	if state, err := c.Advance(context.Background()); err != nil || state.Phase != "completed" {
		t.Fatalf("next invocation must proceed, got %+v %v", state, err)
	}
}

func TestDerivedValuesThroughController(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	started := start.Format(time.RFC3339)
	c := service.NewController(&fakeGateway{}, 3)
	c.Load(domain.Payload{Tasks: []string{"Run 20m"}, StartedAt: &started})

	if got := c.ElapsedMinutes(start.Add(61*time.Minute), true); got == nil || *got != 61 {
		t.Fatalf("expected 61 minutes, got %v", got)
	}
	if got := c.ElapsedMinutes(start, false); got != nil {
		t.Fatalf("disabled elapsed must be nil")
	}
	if minutes, ok := c.EstimatedMinutes(); !ok || minutes != 20 {
		t.Fatalf("expected 20 minute estimate, got %d", minutes)
	}
	if state := c.State(); state.StartedAt == nil || !state.StartedAt.Equal(start) {
		t.Fatalf("expected parsed start time, got %+v", state.StartedAt)
	}
}

func TestNotReadyBeforeLoad(t *testing.T) {
	t.Parallel()
	c := service.NewController(&fakeGateway{}, 3)
	if _, err := c.Advance(context.Background()); !errors.Is(err, apperrors.ErrRunNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
	c.Fail("run information not found")
	if _, err := c.Abort(context.Background()); !errors.Is(err, apperrors.ErrRunNotReady) {
		t.Fatalf("error phase must reject abort, got %v", err)
	}
	if c.State().Phase != "error" || c.State().Error != "run information not found" {
		t.Fatalf("unexpected state %+v", c.State())
	}
}
