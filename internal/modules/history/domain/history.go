package domain

import (
	"net/url"
	"time"
)

const SchemaVersion = 1

type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeInterrupted Outcome = "interrupted"
)

type History struct {
	ID         int64    `json:"id"`
	RoutineID  int64    `json:"routine_id"`
	Title      string   `json:"title"`
	Tasks      []string `json:"tasks"`
	StartedAt  *string  `json:"started_at"`
	FinishedAt *string  `json:"finished_at"`
	Completed  bool     `json:"completed"`
}

// Outcome does not tell an aborted run from one that never finished.
func (h History) Outcome() Outcome {
	if h.Completed {
		return OutcomeCompleted
	}
	return OutcomeInterrupted
}

func (h History) Started() (time.Time, bool) {
	return parseTime(h.StartedAt)
}

func (h History) Finished() (time.Time, bool) {
	return parseTime(h.FinishedAt)
}

// DurationMinutes is whole minutes between start and finish, floored at 0.
func (h History) DurationMinutes() (int, bool) {
	start, ok := h.Started()
	if !ok {
		return 0, false
	}
	end, ok := h.Finished()
	if !ok {
		return 0, false
	}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return minutes, true
}

type Page struct {
	Items []History
	Next  string
	Prev  string
}

// PagePath reduces an absolute page URL to its path and query. Values that
// do not parse as URLs are returned unchanged.
func PagePath(raw *string) string {
	if raw == nil || *raw == "" {
		return ""
	}
	parsed, err := url.Parse(*raw)
	if err != nil || parsed.Path == "" {
		return *raw
	}
	if parsed.RawQuery == "" {
		return parsed.Path
	}
	return parsed.Path + "?" + parsed.RawQuery
}

func parseTime(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
