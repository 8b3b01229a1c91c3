package editor

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	routinedto "routinectl/internal/modules/routine/dto"
	apperrors "routinectl/internal/platform/errors"
)

type fakePort struct {
	created []routinedto.RoutineInput
	updated map[int64]routinedto.RoutineInput
	err     error
}

func (f *fakePort) Get(_ context.Context, id int64) (routinedto.RoutineOutput, error) {
	return routinedto.RoutineOutput{ID: id, Title: "Morning", Tasks: []string{"Stretch", "Tea"}}, nil
}

func (f *fakePort) Create(_ context.Context, input routinedto.RoutineInput) (routinedto.RoutineOutput, error) {
	f.created = append(f.created, input)
	return routinedto.RoutineOutput{ID: 1, Title: input.Title, Tasks: input.Tasks}, f.err
}

func (f *fakePort) Update(_ context.Context, id int64, input routinedto.RoutineInput) (routinedto.RoutineOutput, error) {
	if f.updated == nil {
		f.updated = map[int64]routinedto.RoutineInput{}
	}
	f.updated[id] = input
	return routinedto.RoutineOutput{ID: id, Title: input.Title, Tasks: input.Tasks}, f.err
}

func TestInputDropsBlankLines(t *testing.T) {
	t.Parallel()
	m := New(&fakePort{})
	m.Open(0)
	m.title.SetValue("  Evening ")
	m.tasks.SetValue("Dishes\n\n  Read 20m  \n")
	input := m.Input()
	if input.Title != "Evening" || len(input.Tasks) != 2 || input.Tasks[1] != "Read 20m" {
		t.Fatalf("unexpected input %+v", input)
	}
}

func TestEditLoadsAndUpdates(t *testing.T) {
	t.Parallel()
	port := &fakePort{}
	m := New(port)
	m.Open(7)
	loaded, _ := port.Get(context.Background(), 7)
	m, _ = m.Update(LoadedMsg{Routine: loaded})
	if m.title.Value() != "Morning" || m.tasks.Value() != "Stretch\nTea" {
		t.Fatalf("form not filled: %q %q", m.title.Value(), m.tasks.Value())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saving {
		t.Fatalf("ctrl+s must start saving")
	}
	msg := m.saveCmd()().(SavedMsg)
	if msg.Err != nil || port.updated[7].Title != "Morning" {
		t.Fatalf("update not sent: %+v %v", port.updated, msg.Err)
	}
	if len(port.created) != 0 {
		t.Fatalf("editing must not create")
	}
}

func TestValidationErrorStaysOnForm(t *testing.T) {
	t.Parallel()
	port := &fakePort{err: &apperrors.APIError{Kind: apperrors.KindValidation, Status: "422", Message: "Title taken."}}
	m := New(port)
	m.Open(0)
	m.saving = true
	m, cmd := m.Update(m.saveCmd()())
	if m.saving || m.err != "Title taken." || cmd == nil {
		t.Fatalf("expected inline validation error, got %q", m.err)
	}
}
