package out

import (
	"context"
	"sync"

	"routinectl/internal/modules/run/domain"
	runout "routinectl/internal/modules/run/port/out"
	apperrors "routinectl/internal/platform/errors"
)

// MemoryPayloadStore holds raw JSON per key, mirroring the persistent
// store's decode path.
type MemoryPayloadStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryPayloadStore() *MemoryPayloadStore {
	return &MemoryPayloadStore{data: map[string]string{}}
}

var _ runout.PayloadStore = (*MemoryPayloadStore)(nil)

func (s *MemoryPayloadStore) Get(_ context.Context, historyID int64) (domain.Payload, error) {
	s.mu.Lock()
	raw, ok := s.data[domain.Key(historyID)]
	s.mu.Unlock()
	if !ok {
		return domain.Payload{}, apperrors.ErrPayloadUnavailable
	}
	return decodePayload(raw)
}

func (s *MemoryPayloadStore) Set(_ context.Context, historyID int64, payload domain.Payload) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	s.SetRaw(historyID, raw)
	return nil
}

// SetRaw stores an arbitrary string, including ones that do not parse.
func (s *MemoryPayloadStore) SetRaw(historyID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[domain.Key(historyID)] = raw
}

func (s *MemoryPayloadStore) Clear(_ context.Context, historyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, domain.Key(historyID))
	return nil
}
