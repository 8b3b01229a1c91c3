package out_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	authout "routinectl/internal/modules/auth/adapter/out"
	authdto "routinectl/internal/modules/auth/dto"
	authservice "routinectl/internal/modules/auth/service"
	authusecase "routinectl/internal/modules/auth/usecase"
	routineout "routinectl/internal/modules/routine/adapter/out"
	"routinectl/internal/modules/routine/dto"
	routinein "routinectl/internal/modules/routine/port/in"
	routineusecase "routinectl/internal/modules/routine/usecase"
	runout "routinectl/internal/modules/run/adapter/out"
	runin "routinectl/internal/modules/run/port/in"
	runusecase "routinectl/internal/modules/run/usecase"
	"routinectl/internal/platform/clock"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/testutil/fakeapi"
)

func signedIn(t *testing.T) (*fakeapi.Server, routinein.Usecase, runin.Usecase) {
	t.Helper()
	server := fakeapi.New()
	t.Cleanup(server.Close)
	server.AddUser("owner@example.com", "secret")
	client, err := server.NewClient()
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	auth := authusecase.NewInteractor(authout.NewAPIGateway(client), authservice.NewCache(clock.SystemClock{}, 0))
	if err := auth.Login(context.Background(), authdto.LoginInput{Email: "owner@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	runs := runusecase.NewInteractor(runout.NewAPIGateway(client), runout.NewMemoryPayloadStore())
	return server, routineusecase.NewInteractor(routineout.NewAPIGateway(client), runs), runs
}

func TestRoutineCRUDAgainstAPI(t *testing.T) {
	t.Parallel()
	server, uc, _ := signedIn(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.RoutineInput{Title: "Morning", Tasks: []string{"wash", "stretch"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := uc.List(ctx)
	if err != nil || len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list: %+v %v", list, err)
	}
	if _, err := uc.Update(ctx, created.ID, dto.RoutineInput{Title: "Morning", Tasks: []string{"stretch"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := server.Routine(created.ID)
	if !reflect.DeepEqual(stored.Tasks, []string{"stretch"}) {
		t.Fatalf("update not applied: %+v", stored)
	}
	if err := uc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.Get(ctx, created.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestServerValidationMessageIsShown(t *testing.T) {
	t.Parallel()
	server, uc, _ := signedIn(t)
	server.Fail("routines.create", 422, `{"message":"invalid","errors":{"tasks":["Too many tasks."],"title":["Title taken."]}}`)
	_, err := uc.Create(context.Background(), dto.RoutineInput{Title: "x", Tasks: []string{"a"}})
	if apperrors.MessageOf(err) != "Too many tasks.\nTitle taken." {
		t.Fatalf("unexpected validation message %q", apperrors.MessageOf(err))
	}
}

func TestPreflightStartStagesRun(t *testing.T) {
	t.Parallel()
	server, uc, runs := signedIn(t)
	ctx := context.Background()
	routine := server.AddRoutine("Evening", "A", "B", "C")

	tasks := uc.MoveTask(routine.Tasks, 0, 2)
	out, err := uc.Start(ctx, dto.StartInput{RoutineID: routine.ID, Title: routine.Title, Tasks: tasks})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stored, _ := server.Routine(routine.ID)
	if !reflect.DeepEqual(stored.Tasks, []string{"B", "C", "A"}) {
		t.Fatalf("reorder must be saved before start, got %v", stored.Tasks)
	}
	history, ok := server.History(out.HistoryID)
	if !ok || !reflect.DeepEqual(history.Tasks, []string{"B", "C", "A"}) {
		t.Fatalf("history must use the saved order: %+v", history)
	}

	controller, err := runs.Open(ctx, out.HistoryID)
	if err != nil {
		t.Fatalf("open staged run: %v", err)
	}
	state := controller.State()
	if state.CurrentTask != "B" || state.Total != 3 || state.StartedAt == nil {
		t.Fatalf("unexpected staged state %+v", state)
	}
}

func TestPreflightStartWithoutHistoryID(t *testing.T) {
	t.Parallel()
	server, uc, _ := signedIn(t)
	routine := server.AddRoutine("Evening", "A")
	server.Fail("routines.start", 201, `{"data":{"started_at":null}}`)
	_, err := uc.Start(context.Background(), dto.StartInput{RoutineID: routine.ID, Title: routine.Title, Tasks: routine.Tasks})
	if !errors.Is(err, apperrors.ErrMissingHistoryID) {
		t.Fatalf("expected missing history id, got %v", err)
	}
}
