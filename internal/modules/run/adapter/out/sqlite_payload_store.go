package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"routinectl/internal/modules/run/domain"
	runout "routinectl/internal/modules/run/port/out"
	apperrors "routinectl/internal/platform/errors"
)

// SQLitePayloadStore keeps payloads in the run_payloads table so a run can
// be resumed by a later process.
type SQLitePayloadStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLitePayloadStore(db *sql.DB) runout.PayloadStore {
	return &SQLitePayloadStore{db: db, now: time.Now}
}

func (s *SQLitePayloadStore) Get(ctx context.Context, historyID int64) (domain.Payload, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM run_payloads WHERE key = ?`, domain.Key(historyID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payload{}, apperrors.ErrPayloadUnavailable
	}
	if err != nil {
		return domain.Payload{}, fmt.Errorf("load run payload: %w", err)
	}
	return decodePayload(raw)
}

func (s *SQLitePayloadStore) Set(ctx context.Context, historyID int64, payload domain.Payload) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO run_payloads (key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, domain.Key(historyID), raw, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("store run payload: %w", err)
	}
	return nil
}

func (s *SQLitePayloadStore) Clear(ctx context.Context, historyID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_payloads WHERE key = ?`, domain.Key(historyID)); err != nil {
		return fmt.Errorf("clear run payload: %w", err)
	}
	return nil
}

func marshalPayload(payload domain.Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal run payload: %w", err)
	}
	return string(raw), nil
}

func decodePayload(raw string) (domain.Payload, error) {
	payload := domain.Payload{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.Payload{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
	}
	return payload, nil
}
