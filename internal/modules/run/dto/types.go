package dto

import "time"

type StageInput struct {
	HistoryID int64
	Title     string
	Tasks     []string
	StartedAt *string
}

type FlowState struct {
	HistoryID      int64
	Phase          string
	Title          string
	Index          int
	Total          int
	CurrentTask    string
	HasTask        bool
	RemainingCount int
	StartedAt      *time.Time
	Error          string
}

func (s FlowState) Running() bool {
	return s.Phase == "running"
}

func (s FlowState) Finished() bool {
	return s.Phase == "completed" || s.Phase == "aborted"
}

type Summary struct {
	HistoryID int64
	Title     string
	Tasks     []string
	StartedAt *time.Time
}
