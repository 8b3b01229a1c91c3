package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"routinectl/internal/modules/history/domain"
	historyout "routinectl/internal/modules/history/port/out"
	"routinectl/internal/platform/markdown"
	"routinectl/internal/platform/slug"
)

const tasksBlock = "tasks"

type MarkdownNoteStore struct{}

func NewMarkdownNoteStore() historyout.NoteStore {
	return MarkdownNoteStore{}
}

func (MarkdownNoteStore) Save(_ context.Context, dir string, h domain.History) (string, bool, error) {
	noteDir := filepath.Join(dir, "undated")
	if started, ok := h.Started(); ok {
		noteDir = filepath.Join(dir, started.Format("2006"), started.Format("01"), started.Format("02"))
	}
	if err := os.MkdirAll(noteDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create history dir: %w", err)
	}
	path := filepath.Join(noteDir, fmt.Sprintf("%d-%s.md", h.ID, slug.Make(h.Title)))

	start, end := markdown.BlockMarkers(tasksBlock)
	note := markdown.Note{Body: fmt.Sprintf("# %s\n\n%s\n%s\n\n## Notes\n\n", h.Title, start, end)}
	updated := false
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		note, err = markdown.Parse(string(existing))
		if err != nil {
			return "", false, fmt.Errorf("read history note %s: %w", path, err)
		}
		updated = true
	case !errors.Is(err, os.ErrNotExist):
		return "", false, fmt.Errorf("read history note: %w", err)
	}

	note.Merge(frontmatter(h))
	note.SetBlock(tasksBlock, checklist(h))
	rendered, err := note.Render()
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", false, fmt.Errorf("write history note: %w", err)
	}
	return path, updated, nil
}

func frontmatter(h domain.History) map[string]any {
	meta := map[string]any{
		"schema_version": domain.SchemaVersion,
		"history_id":     h.ID,
		"routine_id":     h.RoutineID,
		"title":          h.Title,
		"outcome":        string(h.Outcome()),
		"task_count":     len(h.Tasks),
	}
	if h.StartedAt != nil {
		meta["started_at"] = *h.StartedAt
	}
	if h.FinishedAt != nil {
		meta["finished_at"] = *h.FinishedAt
	}
	if minutes, ok := h.DurationMinutes(); ok {
		meta["duration_minutes"] = minutes
	}
	return meta
}

// checklist ticks every task of a completed run; an interrupted run does
// not record how far it got.
func checklist(h domain.History) string {
	mark := " "
	if h.Completed {
		mark = "x"
	}
	lines := make([]string, 0, len(h.Tasks))
	for _, task := range h.Tasks {
		lines = append(lines, fmt.Sprintf("- [%s] %s", mark, task))
	}
	return strings.Join(lines, "\n")
}
