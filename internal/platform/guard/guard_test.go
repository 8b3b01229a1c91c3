package guard

import (
	"errors"
	"testing"

	apperrors "routinectl/internal/platform/errors"
)

func TestSubmitRejectsWhilePending(t *testing.T) {
	t.Parallel()
	var g Submit
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	calls := 0

	go func() {
		done <- g.Run(func() error {
			calls++
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if !g.Busy() {
		t.Fatalf("guard must be busy while the first call is pending")
	}
	if err := g.Run(func() error { t.Fatalf("second call must not run"); return nil }); !errors.Is(err, apperrors.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
	if g.Busy() {
		t.Fatalf("guard must be released after settle")
	}
}

func TestSubmitReleasesAfterFailure(t *testing.T) {
	t.Parallel()
	var g Submit
	boom := errors.New("boom")
	if err := g.Run(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected action error, got %v", err)
	}
	ran := false
	if err := g.Run(func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("expected retry to proceed, ran=%t err=%v", ran, err)
	}
}

func TestSubmitReleasesAfterPanic(t *testing.T) {
	t.Parallel()
	var g Submit
	func() {
		defer func() { _ = recover() }()
		_ = g.Run(func() error { panic("boom") })
	}()
	if g.Busy() {
		t.Fatalf("guard must be released after panic")
	}
}
