package dto

type RoutineInput struct {
	Title string
	Tasks []string
}

type RoutineOutput struct {
	ID    int64
	Title string
	Tasks []string
}

// StartInput carries the preflight order; Tasks replace the stored order
// before the run starts.
type StartInput struct {
	RoutineID int64
	Title     string
	Tasks     []string
}

type StartOutput struct {
	HistoryID int64
	StartedAt *string
}
