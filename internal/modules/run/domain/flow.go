package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	apperrors "routinectl/internal/platform/errors"
)

// Payload is what the start step hands to the run screens.
type Payload struct {
	Title     string   `json:"title"`
	Tasks     []string `json:"tasks"`
	StartedAt *string  `json:"started_at,omitempty"`
}

func Key(historyID int64) string {
	return fmt.Sprintf("run:%d", historyID)
}

type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseAborted   Phase = "aborted"
	PhaseError     Phase = "error"
)

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted || p == PhaseError
}

// Flow is the linear walk through one run's tasks. Only Step, MarkCompleted
// and MarkAborted move it forward; nothing moves it back.
type Flow struct {
	HistoryID int64
	Payload   Payload
	Phase     Phase
	Index     int
	Err       string
}

func NewFlow(historyID int64) Flow {
	return Flow{HistoryID: historyID, Phase: PhaseLoading}
}

func (f *Flow) Load(p Payload) {
	if f.Phase != PhaseLoading {
		return
	}
	f.Payload = p
	f.Phase = PhaseRunning
	f.Index = 0
}

func (f *Flow) Fail(message string) {
	f.Phase = PhaseError
	f.Err = message
}

// CheckRunning reports why a signal cannot be accepted right now.
func (f Flow) CheckRunning() error {
	switch f.Phase {
	case PhaseRunning:
		return nil
	case PhaseCompleted, PhaseAborted:
		return apperrors.ErrRunFinished
	default:
		return apperrors.ErrRunNotReady
	}
}

func (f Flow) OnLast() bool {
	return f.Index >= len(f.Payload.Tasks)-1
}

// Step advances locally. It returns false when the flow sits on its last
// task, meaning the next move must go through completion.
func (f *Flow) Step() bool {
	if f.Phase != PhaseRunning || f.OnLast() {
		return false
	}
	f.Index++
	return true
}

func (f *Flow) MarkCompleted() {
	if f.Phase == PhaseRunning && f.OnLast() {
		f.Phase = PhaseCompleted
	}
}

func (f *Flow) MarkAborted() {
	if f.Phase == PhaseRunning {
		f.Phase = PhaseAborted
	}
}

// ─── Derived values ──────────────────────────────────────────────────────

func (f Flow) CurrentTask() (string, bool) {
	if f.Index < 0 || f.Index >= len(f.Payload.Tasks) {
		return "", false
	}
	return f.Payload.Tasks[f.Index], true
}

func (f Flow) RemainingCount() int {
	remaining := len(f.Payload.Tasks) - f.Index - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (f Flow) StartedAt() (time.Time, bool) {
	if f.Payload.StartedAt == nil {
		return time.Time{}, false
	}
	started, err := time.Parse(time.RFC3339, *f.Payload.StartedAt)
	if err != nil {
		return time.Time{}, false
	}
	return started, true
}

// ElapsedMinutes is nil when disabled or when the start time is unknown.
func (f Flow) ElapsedMinutes(now time.Time, enabled bool) *int {
	if !enabled {
		return nil
	}
	started, ok := f.StartedAt()
	if !ok {
		return nil
	}
	minutes := int(now.Sub(started) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}

var estimatePattern = regexp.MustCompile(`(?i)(\d+)\s?m`)

// EstimatedMinutes reads a "15m" style hint out of the current task.
func (f Flow) EstimatedMinutes() (int, bool) {
	task, ok := f.CurrentTask()
	if !ok {
		return 0, false
	}
	match := estimatePattern.FindStringSubmatch(task)
	if match == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil || minutes == 0 {
		return 0, false
	}
	return minutes, true
}
