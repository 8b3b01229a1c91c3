package usecase_test

import (
	"context"
	"errors"
	"testing"

	authout "routinectl/internal/modules/auth/adapter/out"
	authdto "routinectl/internal/modules/auth/dto"
	authservice "routinectl/internal/modules/auth/service"
	authusecase "routinectl/internal/modules/auth/usecase"
	runout "routinectl/internal/modules/run/adapter/out"
	rundto "routinectl/internal/modules/run/dto"
	"routinectl/internal/modules/run/usecase"
	"routinectl/internal/platform/clock"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/testutil/fakeapi"
)

func TestOpenReportsMissingAndBrokenPayloads(t *testing.T) {
	t.Parallel()
	store := runout.NewMemoryPayloadStore()
	store.SetRaw(8, "{oops")
	uc := usecase.NewInteractor(nil, store)
	ctx := context.Background()

	cases := []struct {
		id      int64
		err     error
		message string
	}{
		{0, apperrors.ErrInvalidHistoryID, "invalid history id"},
		{7, apperrors.ErrPayloadUnavailable, "run information not found"},
		{8, apperrors.ErrMalformedPayload, "failed to read run information"},
	}
	for _, tc := range cases {
		controller, err := uc.Open(ctx, tc.id)
		if !errors.Is(err, tc.err) {
			t.Fatalf("history %d: expected %v, got %v", tc.id, tc.err, err)
		}
		state := controller.State()
		if state.Phase != "error" || state.Error != tc.message {
			t.Fatalf("history %d: expected error phase, got %+v", tc.id, state)
		}
	}
}

func TestStagedRunCompletesAgainstAPI(t *testing.T) {
	t.Parallel()
	server := fakeapi.New()
	t.Cleanup(server.Close)
	server.AddUser("runner@example.com", "secret")
	routine := server.AddRoutine("Morning", "A", "B")

	client, err := server.NewClient()
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	auth := authusecase.NewInteractor(authout.NewAPIGateway(client), authservice.NewCache(clock.SystemClock{}, 0))
	ctx := context.Background()
	if err := auth.Login(ctx, authdto.LoginInput{Email: "runner@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	history := server.AddHistory(fakeapi.History{RoutineID: routine.ID, Title: routine.Title, Tasks: routine.Tasks})

	uc := usecase.NewInteractor(runout.NewAPIGateway(client), runout.NewMemoryPayloadStore())
	if err := uc.Stage(ctx, rundto.StageInput{HistoryID: history.ID, Title: "Morning", Tasks: []string{"A", "B"}}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	controller, err := uc.Open(ctx, history.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := controller.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if server.Calls("histories.complete") != 0 {
		t.Fatalf("first advance must stay local")
	}
	state, err := controller.Advance(ctx)
	if err != nil || state.Phase != "completed" {
		t.Fatalf("complete: %+v %v", state, err)
	}
	stored, _ := server.History(history.ID)
	if !stored.Completed || stored.FinishedAt == nil {
		t.Fatalf("server history not completed: %+v", stored)
	}
	if _, err := controller.Abort(ctx); !errors.Is(err, apperrors.ErrRunFinished) {
		t.Fatalf("abort after completion must be rejected, got %v", err)
	}

	summary, err := uc.Summary(ctx, history.ID)
	if err != nil || summary.Title != "Morning" || len(summary.Tasks) != 2 {
		t.Fatalf("summary: %+v %v", summary, err)
	}
}

func TestAbortAgainstAPIWithoutSessionFails(t *testing.T) {
	t.Parallel()
	server := fakeapi.New()
	t.Cleanup(server.Close)
	client, err := server.NewClient()
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	store := runout.NewMemoryPayloadStore()
	uc := usecase.NewInteractor(runout.NewAPIGateway(client), store)
	ctx := context.Background()
	if err := uc.Stage(ctx, rundto.StageInput{HistoryID: 3, Title: "t", Tasks: []string{"a"}}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	controller, err := uc.Open(ctx, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	state, err := controller.Abort(ctx)
	if !errors.Is(err, apperrors.ErrUnauthenticated) || state.Phase != "running" || state.Error != "abort failed (401)" {
		t.Fatalf("expected retriable 401, got %+v %v", state, err)
	}
}
