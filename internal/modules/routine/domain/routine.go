package domain

import (
	"fmt"
	"strings"

	apperrors "routinectl/internal/platform/errors"
)

// MaxTasks is the number of tasks a routine may hold.
const MaxTasks = 10

type Routine struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

// Draft is a routine body as typed by the user, before normalization.
type Draft struct {
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

// Started is the reply to a start request.
type Started struct {
	HistoryID int64   `json:"id"`
	StartedAt *string `json:"started_at"`
}

// NormalizeTasks trims every task and drops the empty ones.
func NormalizeTasks(tasks []string) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		task = strings.TrimSpace(task)
		if task != "" {
			out = append(out, task)
		}
	}
	return out
}

func (d Draft) Normalize() (Draft, error) {
	out := Draft{Title: strings.TrimSpace(d.Title), Tasks: NormalizeTasks(d.Tasks)}
	if out.Title == "" {
		return Draft{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if len(out.Tasks) == 0 {
		return Draft{}, fmt.Errorf("%w: at least one task is required", apperrors.ErrInvalidInput)
	}
	if len(out.Tasks) > MaxTasks {
		return Draft{}, fmt.Errorf("%w: max %d tasks", apperrors.ErrInvalidInput, MaxTasks)
	}
	return out, nil
}

// MoveTask returns a copy of tasks with the item at from moved to to.
// Out-of-range positions leave the order unchanged.
func MoveTask(tasks []string, from, to int) []string {
	out := append([]string(nil), tasks...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{item}, out[to:]...)...)
	return out
}
