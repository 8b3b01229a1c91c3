package dto

import "time"

// ListInput selects a page either by number or by a path taken from a
// previous page's Next or Prev.
type ListInput struct {
	Page    int
	PerPage int
	Path    string
}

type HistoryOutput struct {
	ID              int64
	RoutineID       int64
	Title           string
	Tasks           []string
	StartedAt       *time.Time
	FinishedAt      *time.Time
	Completed       bool
	Outcome         string
	DurationMinutes *int
}

type PageOutput struct {
	Items []HistoryOutput
	Next  string
	Prev  string
}

type ExportInput struct {
	HistoryID int64
	Dir       string
}

type ExportOutput struct {
	Path    string
	Updated bool
}
