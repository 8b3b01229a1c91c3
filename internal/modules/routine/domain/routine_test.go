package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "routinectl/internal/platform/errors"
)

func TestDraftNormalize(t *testing.T) {
	t.Parallel()
	got, err := Draft{Title: "  Morning ", Tasks: []string{" wash ", "", "   ", "stretch"}}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Title != "Morning" || !reflect.DeepEqual(got.Tasks, []string{"wash", "stretch"}) {
		t.Fatalf("unexpected draft %+v", got)
	}

	tooMany := make([]string, MaxTasks+1)
	for i := range tooMany {
		tooMany[i] = "t"
	}
	cases := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"blank title", Draft{Title: " ", Tasks: []string{"a"}}, "title is required"},
		{"no tasks", Draft{Title: "x", Tasks: []string{" ", ""}}, "at least one task"},
		{"too many", Draft{Title: "x", Tasks: tooMany}, "max 10 tasks"},
	}
	for _, tc := range cases {
		_, err := tc.draft.Normalize()
		if !errors.Is(err, apperrors.ErrInvalidInput) || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestMoveTask(t *testing.T) {
	t.Parallel()
	tasks := []string{"a", "b", "c", "d"}
	cases := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a", "d"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 2, []string{"a", "c", "b", "d"}},
		{2, 2, []string{"a", "b", "c", "d"}},
		{0, -1, []string{"a", "b", "c", "d"}},
		{3, 4, []string{"a", "b", "c", "d"}},
		{7, 0, []string{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		if got := MoveTask(tasks, tc.from, tc.to); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("move %d->%d: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
	if !reflect.DeepEqual(tasks, []string{"a", "b", "c", "d"}) {
		t.Fatalf("input must not be mutated: %v", tasks)
	}
}
