package usecase

import (
	"context"
	"fmt"
	"strings"

	"routinectl/internal/modules/history/domain"
	"routinectl/internal/modules/history/dto"
	historyin "routinectl/internal/modules/history/port/in"
	historyout "routinectl/internal/modules/history/port/out"
	apperrors "routinectl/internal/platform/errors"
)

const (
	listPath       = "/api/histories"
	defaultPerPage = 20
)

type Interactor struct {
	gateway historyout.Gateway
	notes   historyout.NoteStore
}

func NewInteractor(gateway historyout.Gateway, notes historyout.NoteStore) historyin.Usecase {
	return &Interactor{gateway: gateway, notes: notes}
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) (dto.PageOutput, error) {
	path, err := pagePath(input)
	if err != nil {
		return dto.PageOutput{}, err
	}
	page, err := i.gateway.List(ctx, path)
	if err != nil {
		return dto.PageOutput{}, err
	}
	out := dto.PageOutput{Items: make([]dto.HistoryOutput, 0, len(page.Items)), Next: page.Next, Prev: page.Prev}
	for _, h := range page.Items {
		out.Items = append(out.Items, toOutput(h))
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, id int64) (dto.HistoryOutput, error) {
	if id <= 0 {
		return dto.HistoryOutput{}, apperrors.ErrInvalidHistoryID
	}
	h, err := i.gateway.Get(ctx, id)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	return toOutput(h), nil
}

func (i *Interactor) Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	if input.HistoryID <= 0 {
		return dto.ExportOutput{}, apperrors.ErrInvalidHistoryID
	}
	if strings.TrimSpace(input.Dir) == "" {
		return dto.ExportOutput{}, fmt.Errorf("%w: export directory is required", apperrors.ErrInvalidInput)
	}
	h, err := i.gateway.Get(ctx, input.HistoryID)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	path, updated, err := i.notes.Save(ctx, input.Dir, h)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Path: path, Updated: updated}, nil
}

// pagePath only follows links back into the history listing.
func pagePath(input dto.ListInput) (string, error) {
	if input.Path != "" {
		if !strings.HasPrefix(input.Path, listPath) {
			return "", fmt.Errorf("%w: unexpected page path %q", apperrors.ErrInvalidInput, input.Path)
		}
		return input.Path, nil
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return fmt.Sprintf("%s?page=%d&per_page=%d", listPath, page, perPage), nil
}

func toOutput(h domain.History) dto.HistoryOutput {
	out := dto.HistoryOutput{
		ID:        h.ID,
		RoutineID: h.RoutineID,
		Title:     h.Title,
		Tasks:     append([]string(nil), h.Tasks...),
		Completed: h.Completed,
		Outcome:   string(h.Outcome()),
	}
	if started, ok := h.Started(); ok {
		out.StartedAt = &started
	}
	if finished, ok := h.Finished(); ok {
		out.FinishedAt = &finished
	}
	if minutes, ok := h.DurationMinutes(); ok {
		out.DurationMinutes = &minutes
	}
	return out
}
