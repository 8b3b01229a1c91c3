package usecase

import (
	"context"
	"errors"
	"time"

	"routinectl/internal/modules/run/domain"
	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	runout "routinectl/internal/modules/run/port/out"
	"routinectl/internal/modules/run/service"
	apperrors "routinectl/internal/platform/errors"
)

const (
	msgInvalidHistoryID = "invalid history id"
	msgPayloadMissing   = "run information not found"
	msgPayloadUnread    = "failed to read run information"
)

type Interactor struct {
	gateway  runout.Gateway
	payloads runout.PayloadStore
}

func NewInteractor(gateway runout.Gateway, payloads runout.PayloadStore) runin.Usecase {
	return &Interactor{gateway: gateway, payloads: payloads}
}

func (i *Interactor) Stage(ctx context.Context, input rundto.StageInput) error {
	if input.HistoryID <= 0 {
		return apperrors.ErrInvalidHistoryID
	}
	payload := domain.Payload{
		Title:     input.Title,
		Tasks:     append([]string(nil), input.Tasks...),
		StartedAt: input.StartedAt,
	}
	return i.payloads.Set(ctx, input.HistoryID, payload)
}

func (i *Interactor) Open(ctx context.Context, historyID int64) (runin.Controller, error) {
	controller := service.NewController(i.gateway, historyID)
	if historyID <= 0 {
		controller.Fail(msgInvalidHistoryID)
		return controller, apperrors.ErrInvalidHistoryID
	}
	payload, err := i.payloads.Get(ctx, historyID)
	if err != nil {
		controller.Fail(loadFailure(err))
		return controller, err
	}
	controller.Load(payload)
	return controller, nil
}

func (i *Interactor) Summary(ctx context.Context, historyID int64) (rundto.Summary, error) {
	if historyID <= 0 {
		return rundto.Summary{}, apperrors.ErrInvalidHistoryID
	}
	payload, err := i.payloads.Get(ctx, historyID)
	if err != nil {
		return rundto.Summary{}, err
	}
	summary := rundto.Summary{HistoryID: historyID, Title: payload.Title, Tasks: payload.Tasks}
	if payload.StartedAt != nil {
		if started, err := time.Parse(time.RFC3339, *payload.StartedAt); err == nil {
			summary.StartedAt = &started
		}
	}
	return summary, nil
}

func (i *Interactor) Discard(ctx context.Context, historyID int64) error {
	return i.payloads.Clear(ctx, historyID)
}

func loadFailure(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrPayloadUnavailable):
		return msgPayloadMissing
	case errors.Is(err, apperrors.ErrMalformedPayload):
		return msgPayloadUnread
	default:
		return err.Error()
	}
}
