package done

import (
	"context"
	"testing"
	"time"

	celebrationdto "routinectl/internal/modules/celebration/dto"
	rundto "routinectl/internal/modules/run/dto"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeRuns struct{ discarded []int64 }

func (f *fakeRuns) Summary(_ context.Context, id int64) (rundto.Summary, error) {
	return rundto.Summary{HistoryID: id, Title: "Morning", Tasks: []string{"A", "B"}, StartedAt: &start}, nil
}

func (f *fakeRuns) Discard(_ context.Context, id int64) error {
	f.discarded = append(f.discarded, id)
	return nil
}

type fakeCelebrate struct {
	inputs []celebrationdto.CelebrateInput
}

func (f *fakeCelebrate) Celebrate(_ context.Context, input celebrationdto.CelebrateInput) (celebrationdto.CelebrateOutput, error) {
	f.inputs = append(f.inputs, input)
	return celebrationdto.CelebrateOutput{Banners: []celebrationdto.BannerOutput{{Source: "confetti", Lines: []string{"yay"}}}}, nil
}

func TestCelebrationOnlyWhenEnabled(t *testing.T) {
	t.Parallel()
	celebrate := &fakeCelebrate{}
	m := New(&fakeRuns{}, celebrate, func() time.Time { return start.Add(25 * time.Minute) })

	msg := m.Open(4)().(LoadedMsg)
	if len(msg.Banners) != 0 || len(celebrate.inputs) != 0 {
		t.Fatalf("celebration disabled must not call plugins")
	}

	m.SetCelebration(true)
	msg = m.Open(4)().(LoadedMsg)
	if len(msg.Banners) != 1 || len(celebrate.inputs) != 1 {
		t.Fatalf("expected one banner, got %+v", msg.Banners)
	}
	if got := celebrate.inputs[0]; got.ElapsedMinutes == nil || *got.ElapsedMinutes != 25 || got.Title != "Morning" {
		t.Fatalf("unexpected celebrate input %+v", got)
	}
	m, _ = m.Update(msg)
	if m.loading || len(m.banners) != 1 {
		t.Fatalf("banners not shown")
	}
}

func TestElapsedMinutesFloorsAtZero(t *testing.T) {
	t.Parallel()
	if got := elapsedMinutes(&start, start.Add(-time.Hour)); got == nil || *got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if elapsedMinutes(nil, start) != nil {
		t.Fatalf("missing start must give nil")
	}
}
